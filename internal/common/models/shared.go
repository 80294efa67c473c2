package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type ContextKey string

const (
	RequestIDKey ContextKey = "request_id"
)

// Identity is what the identity provider tells us about the caller. The core
// never authenticates; it only consumes these values.
type Identity struct {
	UserID string  `json:"user_id"`
	Name   string  `json:"name"`
	Email  string  `json:"email"`
	Avatar *string `json:"avatar,omitempty"`
}

type AuditAction string

const (
	AuditActionCreate        AuditAction = "CREATE"
	AuditActionUpdate        AuditAction = "UPDATE"
	AuditActionDelete        AuditAction = "DELETE"
	AuditActionJoin          AuditAction = "JOIN"
	AuditActionLeave         AuditAction = "LEAVE"
	AuditActionMemberRemoved AuditAction = "MEMBER_REMOVED"
	AuditActionRoleChanged   AuditAction = "ROLE_CHANGED"
	AuditActionVoteStarted   AuditAction = "VOTE_STARTED"
	AuditActionVoteFinished  AuditAction = "VOTE_FINISHED"
	AuditActionMovieChosen   AuditAction = "MOVIE_CHOSEN"
	AuditActionVoteCleared   AuditAction = "VOTE_CLEARED"
)

type Change struct {
	Old interface{} `bson:"old" json:"old"`
	New interface{} `bson:"new" json:"new"`
}

type AuditLog struct {
	ID        primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	Action    AuditAction        `bson:"action" json:"action"`
	Module    string             `bson:"module" json:"module"`                       // groups | vote_sessions
	RecordID  string             `bson:"record_id" json:"record_id"`                 // The ID of the record being modified
	ActorID   string             `bson:"actor_id" json:"actor_id"`                   // User ID who performed the action
	ActorName string             `bson:"-" json:"actor_name,omitempty"`              // Populated Name of the actor
	Changes   map[string]Change  `bson:"changes,omitempty" json:"changes,omitempty"` // field -> {old, new}
	Timestamp time.Time          `bson:"timestamp" json:"timestamp"`
}

type Log struct {
	Message      string    `bson:"message" json:"message"`
	AppId        string    `bson:"app_id" json:"app_id"`
	RequestID    string    `bson:"request_id,omitempty" json:"request_id,omitempty"`
	UserID       string    `bson:"user_id,omitempty" json:"user_id,omitempty"`
	Caller       string    `bson:"caller,omitempty" json:"caller,omitempty"`
	LogLevelId   int       `bson:"log_level_id" json:"log_level_id"`
	CreatedOnUtc time.Time `bson:"created_on_utc" json:"created_on_utc"`
}
