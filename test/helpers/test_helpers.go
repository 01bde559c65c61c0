package helpers

import (
	"context"
	"reflect"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/nimasrn/messaging-api/internal/repository"
	"github.com/nimasrn/messaging-api/pkg/pg"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

func SetupTestDB(t *testing.T) *pg.DB {
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	require.NoError(t, err)

	err = db.AutoMigrate(
		&repository.MessageEntity{},
		&repository.MessageRequestEntity{},
		&repository.MessageDeliveryEntity{},
		&repository.SurveyEntity{},
		&repository.SurveyQuestionEntity{},
	)
	require.NoError(t, err)

	pgDB := &pg.DB{}
	pgDBValue := reflect.ValueOf(pgDB).Elem()

	readField := pgDBValue.FieldByName("read")
	writeField := pgDBValue.FieldByName("write")

	readField = reflect.NewAt(readField.Type(), readField.Addr().UnsafePointer()).Elem()
	writeField = reflect.NewAt(writeField.Type(), writeField.Addr().UnsafePointer()).Elem()

	readField.Set(reflect.ValueOf(db))
	writeField.Set(reflect.ValueOf(db))

	return pgDB
}

func CreateTestMessage(t *testing.T, db *pg.DB, authorID uuid.UUID, subject, body string) *repository.MessageEntity {
	ctx := context.Background()
	msg := &repository.MessageEntity{
		ID:         uuid.New(),
		AuthorID:   authorID,
		Subject:    subject,
		Body:       body,
		ComposedAt: time.Now().UTC(),
		Active:     true,
		CreatedAt:  time.Now().UTC(),
	}
	err := db.Write(ctx).Create(msg).Error
	require.NoError(t, err)
	return msg
}

func CreateTestDelivery(t *testing.T, db *pg.DB, messageID, recipientID uuid.UUID) *repository.MessageDeliveryEntity {
	ctx := context.Background()
	delivery := &repository.MessageDeliveryEntity{
		ID:          uuid.New(),
		MessageID:   messageID,
		RecipientID: recipientID,
	}
	err := db.Write(ctx).Create(delivery).Error
	require.NoError(t, err)
	return delivery
}

func CreateTestRequest(t *testing.T, db *pg.DB, messageID uuid.UUID, authorHandle, recipientHandle string) *repository.MessageRequestEntity {
	ctx := context.Background()
	req := &repository.MessageRequestEntity{
		ID:              uuid.New(),
		AuthorHandle:    authorHandle,
		RecipientHandle: &recipientHandle,
		MessageID:       messageID,
		CreatedAt:       time.Now().UTC(),
	}
	err := db.Write(ctx).Create(req).Error
	require.NoError(t, err)
	return req
}

func WaitForCondition(t *testing.T, timeout time.Duration, condition func() bool) bool {
	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		if condition() {
			return true
		}
		time.Sleep(10 * time.Millisecond)
	}
	return false
}

func AssertEventually(t *testing.T, timeout time.Duration, condition func() bool, msg string) {
	if !WaitForCondition(t, timeout, condition) {
		t.Fatal(msg)
	}
}

func ContextWithTimeout(timeout time.Duration) (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.Background(), timeout)
}

func Ptr[T any](v T) *T {
	return &v
}
