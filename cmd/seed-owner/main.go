// seed-owner creates or resets a portal owner for local development, plus an
// admin user for the ops endpoints.
//
// Usage:
//
//	DB_USER=... DB_PASSWORD=... DB_HOST=... DB_PORT=... DB_NAME=... go run ./cmd/seed-owner
package main

import (
	"context"
	"fmt"
	"os"

	"bitbucket.org/mmdatafocus/portal_backend/config"
	"bitbucket.org/mmdatafocus/portal_backend/models"
	"bitbucket.org/mmdatafocus/portal_backend/utils"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

const (
	ownerUsername = "demoOwner"
	ownerPassword = "demoOwner123"
	ownerName     = "Demo Owner"

	adminUsername = "portalAdmin"
	adminPassword = "P0rtalAdmin!"
	adminName     = "Portal Admin"
)

func main() {
	ctx := context.Background()

	config.ConnectDatabaseWithRetry()
	db := config.GetDB()
	if db == nil {
		fmt.Fprintln(os.Stderr, "database not initialized (config.GetDB returned nil). Set DB_* env vars.")
		os.Exit(1)
	}

	models.MigrateTable()

	if err := seedUser(ctx, db, ownerUsername, ownerPassword, ownerName, models.UserRoleOwner); err != nil {
		fmt.Fprintf(os.Stderr, "failed to seed owner: %v\n", err)
		os.Exit(1)
	}
	if err := seedUser(ctx, db, adminUsername, adminPassword, adminName, models.UserRoleAdmin); err != nil {
		fmt.Fprintf(os.Stderr, "failed to seed admin: %v\n", err)
		os.Exit(1)
	}
}

func seedUser(ctx context.Context, db *gorm.DB, username string, password string, name string, role models.UserRole) error {
	hashed, err := utils.HashPassword(password)
	if err != nil {
		return err
	}

	var existing models.User
	err = db.WithContext(ctx).Where("username = ?", username).First(&existing).Error
	if err != nil {
		if err != gorm.ErrRecordNotFound {
			return err
		}
		user := models.User{
			OwnerId:  uuid.NewString(),
			Username: username,
			Name:     name,
			Password: string(hashed),
			IsActive: utils.NewTrue(),
			Role:     role,
		}
		if err := db.WithContext(ctx).Create(&user).Error; err != nil {
			return err
		}
		fmt.Printf("Created user %q (role=%s, owner_id=%s)\n", username, role, user.OwnerId)
		return nil
	}

	if err := db.WithContext(ctx).Model(&models.User{}).Where("username = ?", username).Updates(map[string]any{
		"password":  string(hashed),
		"name":      name,
		"is_active": utils.NewTrue(),
		"role":      role,
	}).Error; err != nil {
		return err
	}
	fmt.Printf("Updated user %q (role=%s, owner_id=%s)\n", username, role, existing.OwnerId)
	return nil
}
