package group

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type Status string

const (
	StatusActive      Status = "active"
	StatusVoting      Status = "voting"
	StatusMovieChosen Status = "movie_chosen"
)

type Role string

const (
	RoleAdmin  Role = "admin"
	RoleMember Role = "member"
)

func (r Role) Valid() bool {
	return r == RoleAdmin || r == RoleMember
}

// Group is a set of users deciding together what to watch.
type Group struct {
	ID                  primitive.ObjectID   `json:"id" bson:"_id,omitempty"`
	Name                string               `json:"name" bson:"name"`
	Code                string               `json:"code" bson:"code"`
	Members             []Member             `json:"members" bson:"members"`
	HeroImage           string               `json:"hero_image" bson:"hero_image"`
	Status              Status               `json:"status" bson:"status"`
	ActiveVoteSessionID *string              `json:"active_vote_session_id" bson:"active_vote_session_id"`
	ChosenMovie         *ChosenMovie         `json:"chosen_movie" bson:"chosen_movie"`
	VoteHistory         []VoteHistoryEntry   `json:"vote_history" bson:"vote_history"`
	LastRecommendations *LastRecommendations `json:"last_recommendations,omitempty" bson:"last_recommendations,omitempty"`
	CreatedBy           string               `json:"created_by" bson:"created_by"`
	Version             int64                `json:"-" bson:"version"`
	CreatedAt           time.Time            `json:"created_at" bson:"created_at"`
	UpdatedAt           time.Time            `json:"updated_at" bson:"updated_at"`
}

// Member is embedded in Group. UserRef is the identity provider's subject.
type Member struct {
	ID       primitive.ObjectID `json:"id" bson:"_id"`
	UserRef  string             `json:"user_ref" bson:"user_ref"`
	Name     string             `json:"name" bson:"name"`
	Avatar   *string            `json:"avatar" bson:"avatar"`
	Role     Role               `json:"role" bson:"role"`
	JoinedAt time.Time          `json:"joined_at" bson:"joined_at"`
}

type ChosenMovie struct {
	ID             int    `json:"id" bson:"id"`
	Title          string `json:"title" bson:"title"`
	Poster         string `json:"poster" bson:"poster"`
	VotePercentage int    `json:"vote_percentage" bson:"vote_percentage"`
	TotalVotes     int    `json:"total_votes" bson:"total_votes"`
}

type VoteHistoryEntry struct {
	MovieID        int       `json:"movie_id" bson:"movie_id"`
	MovieTitle     string    `json:"movie_title" bson:"movie_title"`
	MoviePoster    string    `json:"movie_poster" bson:"movie_poster"`
	VotePercentage int       `json:"vote_percentage" bson:"vote_percentage"`
	TotalVotes     int       `json:"total_votes" bson:"total_votes"`
	VotedAt        time.Time `json:"voted_at" bson:"voted_at"`
	Voters         []string  `json:"voters" bson:"voters"`
}

type WatchLinks struct {
	IMDb        string `json:"imdb" bson:"imdb"`
	JustWatch   string `json:"justwatch" bson:"justwatch"`
	Netflix     string `json:"netflix" bson:"netflix"`
	AmazonPrime string `json:"amazon_prime" bson:"amazon_prime"`
	Hulu        string `json:"hulu" bson:"hulu"`
	DisneyPlus  string `json:"disney_plus" bson:"disney_plus"`
	HBOMax      string `json:"hbo_max" bson:"hbo_max"`
	AppleTV     string `json:"apple_tv" bson:"apple_tv"`
	GooglePlay  string `json:"google_play" bson:"google_play"`
	Vudu        string `json:"vudu" bson:"vudu"`
	Google      string `json:"google" bson:"google"`
	YouTube     string `json:"youtube" bson:"youtube"`
}

// Recommendation is produced by the recommendation generator elsewhere; the
// group only caches the last batch.
type Recommendation struct {
	Title              string     `json:"title" bson:"title"`
	Year               int        `json:"year" bson:"year"`
	Genre              string     `json:"genre" bson:"genre"`
	Director           string     `json:"director" bson:"director"`
	Plot               string     `json:"plot" bson:"plot"`
	Rating             string     `json:"rating" bson:"rating"`
	Duration           string     `json:"duration" bson:"duration"`
	Reason             string     `json:"reason" bson:"reason"`
	GroupCompatibility float64    `json:"group_compatibility" bson:"group_compatibility"`
	WatchLinks         WatchLinks `json:"watch_links" bson:"watch_links"`
	EnrichedAt         time.Time  `json:"enriched_at" bson:"enriched_at"`
}

type LastRecommendations struct {
	Recommendations []Recommendation `json:"recommendations" bson:"recommendations"`
	GeneratedAt     time.Time        `json:"generated_at" bson:"generated_at"`
	ExpiresAt       time.Time        `json:"expires_at" bson:"expires_at"`
}

type CreateGroupRequest struct {
	Name      string `json:"name"`
	HeroImage string `json:"hero_image"`
}

type UpdateGroupRequest struct {
	Name      *string `json:"name"`
	HeroImage *string `json:"hero_image"`
}

type JoinGroupRequest struct {
	Code string `json:"code"`
}

type UpdateRoleRequest struct {
	Role Role `json:"role"`
}

type HistoryVotersRequest struct {
	MovieID int      `json:"movie_id"`
	Voters  []string `json:"voters"`
}

type RecommendationsRequest struct {
	Recommendations []Recommendation `json:"recommendations"`
}
