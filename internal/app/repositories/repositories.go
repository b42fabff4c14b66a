package repositories

import (
	"github.com/jackc/pgx/v5/pgxpool"
)

// Repositories holds all the repository instances
type Repositories struct {
	UserRepository      *UserRepository
	TokenRepository     *TokenRepository
	ChatRepository      *ChatRepository
	ProfileRepository   *ProfileRepository
	PostRepository      *PostRepository
	CommunityRepository *CommunityRepository
	SurveyRepository    *SurveyRepository
	EventRepository     *EventRepository
}

// NewRepositories initializes all repositories
func NewRepositories(db *pgxpool.Pool) *Repositories {
	return &Repositories{
		UserRepository:      NewUserRepository(db),
		TokenRepository:     NewTokenRepository(db),
		ChatRepository:      NewChatRepository(db),
		ProfileRepository:   NewProfileRepository(db),
		PostRepository:      NewPostRepository(db),
		CommunityRepository: NewCommunityRepository(db),
		SurveyRepository:    NewSurveyRepository(db),
		EventRepository:     NewEventRepository(db),
	}
}
