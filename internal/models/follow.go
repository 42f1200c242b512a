package models

import "time"

// Follow is a directed subscription from one user to an author. The
// composite unique index makes duplicate follows a storage-level no-op
// instead of an application-level check-then-act.
type Follow struct {
	ID         int  `gorm:"primaryKey" json:"id"`
	FollowerID int  `gorm:"not null;uniqueIndex:idx_follows_follower_author" json:"follower_id"`
	AuthorID   int  `gorm:"not null;uniqueIndex:idx_follows_follower_author" json:"author_id"`
	Follower   User `gorm:"foreignKey:FollowerID" json:"-"`
	Author     User `gorm:"foreignKey:AuthorID" json:"-"`

	CreatedAt time.Time `json:"created_at"`
}
