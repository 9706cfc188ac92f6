package data

import (
	"log"

	"github.com/grantdesk/grantdesk/src/api/types"
	"gorm.io/driver/mysql"
	"gorm.io/gorm"
)

func MustMySQL(dsn string) *gorm.DB {
	db, err := gorm.Open(mysql.Open(dsn), &gorm.Config{})
	if err != nil {
		log.Fatalf("mysql: %v", err)
	}
	return db
}

// Migrate keeps the schema in step with the models in types.
func Migrate(db *gorm.DB) error {
	return db.AutoMigrate(
		&types.User{},
		&types.Call{},
		&types.Proposal{},
		&types.ProposalRevision{},
		&types.Notification{},
		&types.Setting{},
	)
}
