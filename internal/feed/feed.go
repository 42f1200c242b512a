// Package feed builds the filtered, ordered post lists behind every
// feed-style page: home, group, profile and following.
package feed

import (
	"errors"

	"gorm.io/gorm"

	"github.com/mkuznet/groupblog/internal/models"
	"github.com/mkuznet/groupblog/internal/pagination"
)

// ErrNotFound is returned when the slug or username a feed is scoped to
// does not exist.
var ErrNotFound = errors.New("not found")

type Service struct {
	db *gorm.DB
}

func NewService(db *gorm.DB) *Service {
	return &Service{db: db}
}

type Result struct {
	Posts []models.Post
	Page  pagination.Page
}

type GroupResult struct {
	Result
	Group models.Group
}

type ProfileResult struct {
	Result
	Author models.User
	// Following reports whether the current viewer follows this author.
	// Always false for anonymous viewers.
	Following bool
}

// Home returns all posts, newest first.
func (s *Service) Home(page int) (*Result, error) {
	return s.paginate(func(tx *gorm.DB) *gorm.DB { return tx }, page)
}

// Group returns the posts of the group with the given slug.
func (s *Service) Group(slug string, page int) (*GroupResult, error) {
	var group models.Group
	if err := s.db.Where("slug = ?", slug).First(&group).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}

	result, err := s.paginate(func(tx *gorm.DB) *gorm.DB {
		return tx.Where("group_id = ?", group.ID)
	}, page)
	if err != nil {
		return nil, err
	}
	return &GroupResult{Result: *result, Group: group}, nil
}

// Profile returns the posts of the author with the given username, plus
// whether viewerID follows them. viewerID is 0 for anonymous viewers.
func (s *Service) Profile(username string, viewerID, page int) (*ProfileResult, error) {
	var author models.User
	if err := s.db.Where("username = ?", username).First(&author).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}

	result, err := s.paginate(func(tx *gorm.DB) *gorm.DB {
		return tx.Where("author_id = ?", author.ID)
	}, page)
	if err != nil {
		return nil, err
	}

	following := false
	if viewerID != 0 {
		var count int64
		if err := s.db.Model(&models.Follow{}).
			Where("follower_id = ? AND author_id = ?", viewerID, author.ID).
			Count(&count).Error; err != nil {
			return nil, err
		}
		following = count > 0
	}

	return &ProfileResult{Result: *result, Author: author, Following: following}, nil
}

// Following returns posts by the authors the viewer follows. A viewer who
// follows nobody gets an empty page, not an error.
func (s *Service) Following(viewerID, page int) (*Result, error) {
	followed := s.db.Model(&models.Follow{}).
		Select("author_id").
		Where("follower_id = ?", viewerID)

	return s.paginate(func(tx *gorm.DB) *gorm.DB {
		return tx.Where("author_id IN (?)", followed)
	}, page)
}

func (s *Service) paginate(scope func(*gorm.DB) *gorm.DB, page int) (*Result, error) {
	var total int64
	if err := scope(s.db.Model(&models.Post{})).Count(&total).Error; err != nil {
		return nil, err
	}

	window := pagination.Window(total, page)

	var posts []models.Post
	if err := scope(s.db).
		Preload("Author").
		Preload("Group").
		Order("created_at DESC, id DESC").
		Limit(window.Limit).
		Offset(window.Offset).
		Find(&posts).Error; err != nil {
		return nil, err
	}

	return &Result{Posts: posts, Page: window}, nil
}
