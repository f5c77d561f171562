package audit

import (
	"log"

	"github.com/ManuelReschke/PayFox/app/models"
	"gorm.io/gorm"
)

// Logger is a fire-and-forget audit sink. Entries are written asynchronously
// and failures are swallowed after logging; nothing may depend on an audit
// row existing.
type Logger struct {
	db *gorm.DB
}

// NewLogger creates an audit logger over the given database handle.
func NewLogger(db *gorm.DB) *Logger {
	return &Logger{db: db}
}

// LogAction records an audit entry without blocking the caller.
func (l *Logger) LogAction(action, entityType, entityID, actorID, details string) {
	if l.db == nil {
		return
	}

	entry := models.AuditLog{
		Action:     action,
		EntityType: entityType,
		EntityID:   entityID,
		ActorID:    actorID,
		Details:    details,
	}

	go func() {
		if err := l.db.Create(&entry).Error; err != nil {
			log.Printf("audit write failed for action %s: %v", action, err)
		}
	}()
}
