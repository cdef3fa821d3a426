package config

import (
	"os"
	"strconv"
	"strings"
)

// App-level settings, read once from the environment. Computations take these
// as parameters so the engine never reads process state at call time.

// BaseCurrency is the single currency assumed for aggregate computations.
// No conversion is performed anywhere in the engine.
func BaseCurrency() string {
	if v := strings.TrimSpace(os.Getenv("BASE_CURRENCY")); v != "" {
		return v
	}
	return "RUB"
}

// ReminderDaysThreshold controls how many days ahead the subscription and
// loan/mortgage reminder jobs look.
func ReminderDaysThreshold() int {
	v := strings.TrimSpace(os.Getenv("REMINDER_DAYS_THRESHOLD"))
	if v == "" {
		return 3
	}
	n, err := strconv.Atoi(v)
	if err != nil || n < 0 {
		return 3
	}
	return n
}
