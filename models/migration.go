package models

import (
	"log"

	"bitbucket.org/mmdatafocus/portal_backend/config"
)

func MigrateTable() {
	db := config.GetDB()

	err := db.AutoMigrate(
		&User{},
		&Account{}, &Category{}, &Transaction{},
		&Payment{},
		&Debt{}, &DebtPayment{},
		&Income{},
		&DashboardPreference{},
		&IdempotencyKey{},
	)
	if err != nil {
		log.Fatal(err)
	}
}
