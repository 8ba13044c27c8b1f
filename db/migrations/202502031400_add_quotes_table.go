package migrations

import (
	"github.com/go-gormigrate/gormigrate/v2"
	"gorm.io/gorm"

	"github.com/thesimplekid/cashu-lsp/db"
)

var _202502031400_add_quotes_table = &gormigrate.Migration{
	ID: "202502031400_add_quotes_table",
	Migrate: func(tx *gorm.DB) error {
		return tx.AutoMigrate(&db.Quote{})
	},
	Rollback: func(tx *gorm.DB) error {
		return tx.Migrator().DropTable(&db.Quote{})
	},
}
