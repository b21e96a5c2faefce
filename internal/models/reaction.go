package models

import (
	"time"

	"gorm.io/gorm"
)

// ReactionKind is the opinion a user holds about a game.
type ReactionKind string

const (
	ReactionLike    ReactionKind = "like"
	ReactionDislike ReactionKind = "dislike"
)

// Valid reports whether k is one of the two stored kinds.
func (k ReactionKind) Valid() bool {
	return k == ReactionLike || k == ReactionDislike
}

// Reaction is a user's single active like or dislike on a game.
// At most one row exists per (user_id, game_id).
type Reaction struct {
	ID        string       `gorm:"type:varchar(36);primaryKey" json:"id"`
	UserID    string       `gorm:"size:255;not null;uniqueIndex:uq_game_reactions_user_game,priority:1" json:"userId"`
	GameID    string       `gorm:"type:varchar(36);not null;uniqueIndex:uq_game_reactions_user_game,priority:2;index:idx_game_reactions_game_type,priority:1" json:"gameId"`
	Kind      ReactionKind `gorm:"column:reaction_type;size:16;not null;index:idx_game_reactions_game_type,priority:2;check:chk_game_reactions_type,reaction_type IN ('like','dislike')" json:"reactionType"`
	CreatedAt time.Time    `json:"createdAt"`
	UpdatedAt time.Time    `json:"updatedAt"`

	Game *Game `gorm:"foreignKey:GameID;constraint:OnDelete:CASCADE" json:"-"`
}

func (Reaction) TableName() string {
	return "game_reactions"
}

func (r *Reaction) BeforeCreate(_ *gorm.DB) error {
	r.ID = newID(r.ID)
	return nil
}

// ReactionStats is the derived like/dislike tally for a game plus the caller's own reaction.
type ReactionStats struct {
	LikeCount    int64         `json:"likeCount"`
	DislikeCount int64         `json:"dislikeCount"`
	UserReaction *ReactionKind `json:"userReaction"`
}

// ReactionOutcome distinguishes how a reaction call changed (or did not change) state.
type ReactionOutcome string

const (
	OutcomeCreated         ReactionOutcome = "created"
	OutcomeAlready         ReactionOutcome = "already"
	OutcomeUpdated         ReactionOutcome = "updated"
	OutcomeRemoved         ReactionOutcome = "removed"
	OutcomeNothingToRemove ReactionOutcome = "nothing_to_remove"
)
