package votesession

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type Status string

const (
	StatusActive   Status = "active"
	StatusFinished Status = "finished"
)

const (
	MinDuration = 1
	MaxDuration = 120
)

type WatchedBy struct {
	UserID   string `json:"user_id" bson:"user_id"`
	UserName string `json:"user_name" bson:"user_name"`
}

// MovieMetadata is the snapshot of a candidate taken when the session starts.
type MovieMetadata struct {
	ID        int         `json:"id" bson:"id"`
	Title     string      `json:"title" bson:"title"`
	Year      int         `json:"year,omitempty" bson:"year,omitempty"`
	Poster    string      `json:"poster,omitempty" bson:"poster,omitempty"`
	Genre     string      `json:"genre,omitempty" bson:"genre,omitempty"`
	Rating    string      `json:"rating,omitempty" bson:"rating,omitempty"`
	Director  string      `json:"director,omitempty" bson:"director,omitempty"`
	Plot      string      `json:"plot,omitempty" bson:"plot,omitempty"`
	Reason    string      `json:"reason,omitempty" bson:"reason,omitempty"`
	Duration  string      `json:"duration,omitempty" bson:"duration,omitempty"`
	WatchedBy []WatchedBy `json:"watched_by" bson:"watched_by"`
}

type Vote struct {
	ID        primitive.ObjectID `json:"id" bson:"_id"`
	UserID    string             `json:"user_id" bson:"user_id"`
	UserName  string             `json:"user_name" bson:"user_name"`
	MovieID   int                `json:"movie_id" bson:"movie_id"`
	Timestamp time.Time          `json:"timestamp" bson:"timestamp"`
}

type VoteSession struct {
	ID            primitive.ObjectID `json:"id" bson:"_id"`
	GroupID       primitive.ObjectID `json:"group_id" bson:"group_id"`
	GroupName     string             `json:"group_name" bson:"group_name"`
	MovieIDs      []int              `json:"movie_ids" bson:"movie_ids"`
	MovieMetadata []MovieMetadata    `json:"movie_metadata" bson:"movie_metadata"`
	Duration      int                `json:"duration" bson:"duration"`
	StartTime     time.Time          `json:"start_time" bson:"start_time"`
	EndTime       time.Time          `json:"end_time" bson:"end_time"`
	Votes         []Vote             `json:"votes" bson:"votes"`
	Status        Status             `json:"status" bson:"status"`
	CreatedBy     string             `json:"created_by" bson:"created_by"`
	CreatedAt     time.Time          `json:"created_at" bson:"created_at"`
	UpdatedAt     time.Time          `json:"updated_at" bson:"updated_at"`
}

type CastResult struct {
	IsUpdate bool `json:"is_update"`
	Vote     Vote `json:"vote"`
}

type MovieDetails struct {
	Title    string `json:"title"`
	Year     int    `json:"year,omitempty"`
	Poster   string `json:"poster,omitempty"`
	Genre    string `json:"genre,omitempty"`
	Rating   string `json:"rating,omitempty"`
	Director string `json:"director,omitempty"`
	Plot     string `json:"plot,omitempty"`
	Reason   string `json:"reason,omitempty"`
	Duration string `json:"duration,omitempty"`
}

// Result is the tally of one candidate.
type Result struct {
	MovieID      int           `json:"movie_id"`
	Votes        int           `json:"votes"`
	Percentage   int           `json:"percentage"`
	Voters       []string      `json:"voters"`
	MovieDetails *MovieDetails `json:"movie_details,omitempty"`
}

// SessionView is a session as seen by one caller.
type SessionView struct {
	Session          *VoteSession `json:"session"`
	IsActive         bool         `json:"is_active"`
	RemainingSeconds int64        `json:"remaining_seconds"`
	EndsIn           string       `json:"ends_in"`
	HasVoted         bool         `json:"has_voted"`
	UserVote         *Vote        `json:"user_vote"`
}

type CastResponse struct {
	CastResult
	Results []Result `json:"results"`
}

type FinishResponse struct {
	Session *VoteSession `json:"session"`
	Results []Result     `json:"results"`
	Winner  *Result      `json:"winner"`
}

type CreateSessionRequest struct {
	GroupID       string          `json:"group_id"`
	MovieIDs      []int           `json:"movie_ids"`
	MovieMetadata []MovieMetadata `json:"movie_metadata"`
	Duration      int             `json:"duration"`
}

type CastVoteRequest struct {
	MovieID int `json:"movie_id"`
}
