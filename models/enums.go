package models

type CategoryType string

const (
	CategoryTypeExpense CategoryType = "expense"
	CategoryTypeIncome  CategoryType = "income"
)

var AllCategoryType = []CategoryType{
	CategoryTypeExpense,
	CategoryTypeIncome,
}

func (e CategoryType) IsValid() bool {
	switch e {
	case CategoryTypeExpense, CategoryTypeIncome:
		return true
	}
	return false
}

func (e CategoryType) String() string {
	return string(e)
}

type PaymentType string

const (
	PaymentTypeMortgage     PaymentType = "mortgage"
	PaymentTypeLoan         PaymentType = "loan"
	PaymentTypeUtilities    PaymentType = "utilities"
	PaymentTypeParkingRent  PaymentType = "parking_rent"
	PaymentTypeMobile       PaymentType = "mobile"
	PaymentTypeSubscription PaymentType = "subscription"
)

var AllPaymentType = []PaymentType{
	PaymentTypeMortgage,
	PaymentTypeLoan,
	PaymentTypeUtilities,
	PaymentTypeParkingRent,
	PaymentTypeMobile,
	PaymentTypeSubscription,
}

func (e PaymentType) IsValid() bool {
	switch e {
	case PaymentTypeMortgage, PaymentTypeLoan, PaymentTypeUtilities,
		PaymentTypeParkingRent, PaymentTypeMobile, PaymentTypeSubscription:
		return true
	}
	return false
}

func (e PaymentType) String() string {
	return string(e)
}

// IsAmortized reports whether the payment type carries loan math
// (annuity payment, outstanding balance).
func (e PaymentType) IsAmortized() bool {
	return e == PaymentTypeMortgage || e == PaymentTypeLoan
}

type DebtDirection string

const (
	DebtDirectionBorrowed DebtDirection = "borrowed"
	DebtDirectionLent     DebtDirection = "lent"
)

var AllDebtDirection = []DebtDirection{
	DebtDirectionBorrowed,
	DebtDirectionLent,
}

func (e DebtDirection) IsValid() bool {
	switch e {
	case DebtDirectionBorrowed, DebtDirectionLent:
		return true
	}
	return false
}

func (e DebtDirection) String() string {
	return string(e)
}

type Periodicity string

const (
	PeriodicityMonthly     Periodicity = "monthly"
	PeriodicityQuarterly   Periodicity = "quarterly"
	PeriodicityCustomNDays Periodicity = "custom_ndays"
)

var AllPeriodicity = []Periodicity{
	PeriodicityMonthly,
	PeriodicityQuarterly,
	PeriodicityCustomNDays,
}

func (e Periodicity) IsValid() bool {
	switch e {
	case PeriodicityMonthly, PeriodicityQuarterly, PeriodicityCustomNDays:
		return true
	}
	return false
}

func (e Periodicity) String() string {
	return string(e)
}

type UserRole string

const (
	UserRoleOwner UserRole = "owner"
	UserRoleAdmin UserRole = "admin"
)
