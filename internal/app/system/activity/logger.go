// internal/app/system/activity/logger.go
package activity

import (
	"context"
	"fmt"

	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"

	"github.com/prabhatdev/gramvani/internal/app/store/activitylog"
	"github.com/prabhatdev/gramvani/internal/domain/models"
)

// Logging destinations, selected by the activity_log config knob.
const (
	ModeAll = "all" // MongoDB + zap
	ModeDB  = "db"  // MongoDB only
	ModeLog = "log" // zap only
	ModeOff = "off" // disabled
)

// Logger provides typed helpers for recording administrative actions.
// Each event fans out to the activity_log collection and to structured
// logs, per the configured mode. A nil *Logger is a no-op, which lets
// tests skip wiring it.
type Logger struct {
	store  *activitylog.Store
	zapLog *zap.Logger
	mode   string
}

// New creates an activity Logger. Unknown modes behave like ModeAll.
func New(store *activitylog.Store, zapLog *zap.Logger, mode string) *Logger {
	return &Logger{store: store, zapLog: zapLog, mode: mode}
}

// Actor identifies who performed an action.
type Actor struct {
	ID    primitive.ObjectID
	Email string
}

// Record logs one action. Store failures are reported to zap rather
// than returned; activity logging never fails the operation it observes.
func (l *Logger) Record(ctx context.Context, actor Actor, action, details string, success bool) {
	if l == nil || l.mode == ModeOff {
		return
	}

	if l.mode != ModeDB {
		fields := []zap.Field{
			zap.Bool("activity", true),
			zap.String("action", action),
			zap.String("actor_id", actor.ID.Hex()),
			zap.String("actor_email", actor.Email),
			zap.Bool("success", success),
		}
		if details != "" {
			fields = append(fields, zap.String("details", details))
		}
		if success {
			l.zapLog.Info("activity", fields...)
		} else {
			l.zapLog.Warn("activity", fields...)
		}
	}

	if l.mode != ModeLog {
		err := l.store.Append(ctx, models.ActivityEntry{
			Action:     action,
			ActorID:    actor.ID,
			ActorEmail: actor.Email,
			Details:    details,
			Success:    success,
		})
		if err != nil {
			l.zapLog.Error("failed to store activity entry",
				zap.Error(err),
				zap.String("action", action))
		}
	}
}

// --- Typed helpers ---

func (l *Logger) LoginSuccess(ctx context.Context, actor Actor) {
	l.Record(ctx, actor, activitylog.ActionLoginSuccess, "", true)
}

func (l *Logger) LoginFailed(ctx context.Context, email, reason string) {
	l.Record(ctx, Actor{Email: email}, activitylog.ActionLoginFailed, reason, false)
}

func (l *Logger) Logout(ctx context.Context, actor Actor) {
	l.Record(ctx, actor, activitylog.ActionLogout, "", true)
}

func (l *Logger) UserCreated(ctx context.Context, actor Actor, email, role string) {
	l.Record(ctx, actor, activitylog.ActionUserCreated,
		fmt.Sprintf("created %s (%s)", email, role), true)
}

func (l *Logger) UserDeleted(ctx context.Context, actor Actor, email, role string) {
	l.Record(ctx, actor, activitylog.ActionUserDeleted,
		fmt.Sprintf("deleted %s (%s)", email, role), true)
}

func (l *Logger) UserStatusChanged(ctx context.Context, actor Actor, email, newStatus string) {
	l.Record(ctx, actor, activitylog.ActionUserStatusChanged,
		fmt.Sprintf("%s -> %s", email, newStatus), true)
}

func (l *Logger) ContactsUploaded(ctx context.Context, actor Actor, district, village string, count int) {
	l.Record(ctx, actor, activitylog.ActionContactsUploaded,
		fmt.Sprintf("%d contacts into %s / %s", count, district, village), true)
}

func (l *Logger) ContactsDeleted(ctx context.Context, actor Actor, district, village string, count int64) {
	scope := district
	if village != "" {
		scope += " / " + village
	}
	l.Record(ctx, actor, activitylog.ActionContactsDeleted,
		fmt.Sprintf("%d contacts from %s", count, scope), true)
}

func (l *Logger) ContactsExported(ctx context.Context, actor Actor, district, village string, count int) {
	scope := district
	if village != "" {
		scope += " / " + village
	}
	l.Record(ctx, actor, activitylog.ActionContactsExported,
		fmt.Sprintf("%d contacts from %s", count, scope), true)
}

func (l *Logger) AllocationCreated(ctx context.Context, actor Actor, granteeEmail, district string, allocated, requested int) {
	l.Record(ctx, actor, activitylog.ActionAllocationCreated,
		fmt.Sprintf("%d/%d villages in %s to %s", allocated, requested, district, granteeEmail),
		allocated > 0)
}

func (l *Logger) AllocationRemoved(ctx context.Context, actor Actor, granteeEmail, district, village string) {
	l.Record(ctx, actor, activitylog.ActionAllocationRemoved,
		fmt.Sprintf("%s / %s from %s", district, village, granteeEmail), true)
}

func (l *Logger) MessagesSent(ctx context.Context, actor Actor, channel, area string, sent, failed int) {
	l.Record(ctx, actor, activitylog.ActionMessagesSent,
		fmt.Sprintf("%s to %s: %d sent, %d failed", channel, area, sent, failed),
		failed == 0)
}

func (l *Logger) LogCleared(ctx context.Context, actor Actor, which string, count int64) {
	l.Record(ctx, actor, activitylog.ActionLogCleared,
		fmt.Sprintf("%s: %d entries", which, count), true)
}
