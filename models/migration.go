package models

import (
	"log"

	"bitbucket.org/mmdatafocus/fintrack_backend/config"
)

func MigrateTable() {
	db := config.GetDB()

	err := db.AutoMigrate(
		&Account{}, &Transaction{},
		&RecurringRule{},
		&SettlementMessageRecord{},
		&IdempotencyKey{},
	)
	if err != nil {
		log.Fatal(err)
	}
}
