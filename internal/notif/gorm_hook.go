package notif

import (
	"fmt"

	"gorm.io/gorm"

	"gochat/internal/common"
)

var tableTopics = map[string]common.Topic{
	"channels":      common.TopicChannels,
	"threads":       common.TopicThreads,
	"messages":      common.TopicMessages,
	"attachments":   common.TopicAttachments,
	"message_cc":    common.TopicMessageCC,
	"notifications": common.TopicNotifications,
}

// RegisterChangeHook publishes a table's topic once a create, update or delete on it commits.
// Statements inside an explicit db.Transaction are skipped: nothing is visible before the
// commit, so the code running the transaction publishes after it.
func RegisterChangeHook(db *gorm.DB, publisher common.Publisher) error {
	publish := func(tx *gorm.DB) {
		if tx.Error != nil || tx.Statement.RowsAffected == 0 {
			return
		}
		if _, inTx := tx.Statement.ConnPool.(gorm.TxCommitter); inTx {
			return
		}
		if topic, ok := tableTopics[tx.Statement.Table]; ok {
			publisher.Publish(topic)
		}
	}

	if err := db.Callback().Create().After("gorm:commit_or_rollback_transaction").
		Register("gochat:publish_create", publish); err != nil {
		return fmt.Errorf("register create hook: %w", err)
	}
	if err := db.Callback().Update().After("gorm:commit_or_rollback_transaction").
		Register("gochat:publish_update", publish); err != nil {
		return fmt.Errorf("register update hook: %w", err)
	}
	if err := db.Callback().Delete().After("gorm:commit_or_rollback_transaction").
		Register("gochat:publish_delete", publish); err != nil {
		return fmt.Errorf("register delete hook: %w", err)
	}
	return nil
}
