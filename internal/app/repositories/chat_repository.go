package repositories

import (
	"context"
	"errors"
	"fmt"

	"github.com/Masterminds/squirrel"
	"github.com/alumnisphere/api/internal/app/models"
	"github.com/alumnisphere/api/internal/db"
	"github.com/alumnisphere/api/internal/pkg/apperrors"
	"github.com/alumnisphere/api/internal/pkg/logger"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// MessageFilter selects the messages visible to a participant
type MessageFilter struct {
	ParticipantID int64
	ChatRoomID    *int64
	Offset        uint64
	Limit         uint64
}

// IChatRepository defines chat room and message persistence
type IChatRepository interface {
	FindOrCreateRoom(ctx context.Context, pair models.ParticipantPair) (*models.ChatRoom, bool, error)
	GetRoomByID(ctx context.Context, roomID int64) (*models.ChatRoom, error)
	ListRoomsForUser(ctx context.Context, userID int64) ([]*models.ChatRoom, error)

	CreateMessage(ctx context.Context, msg *models.ChatMessage) error
	GetMessageByID(ctx context.Context, messageID int64) (*models.ChatMessage, error)
	LatestMessage(ctx context.Context, roomID int64) (*models.ChatMessage, error)
	ListMessages(ctx context.Context, filter MessageFilter) ([]*models.ChatMessage, int64, error)
	DeleteMessage(ctx context.Context, messageID int64) error

	CountUnread(ctx context.Context, roomID, viewerID int64) (int64, error)
	MarkRead(ctx context.Context, roomID, viewerID int64) (int64, error)
}

var roomColumns = []string{
	"id", "user_low_id", "user_high_id", "last_message", "last_message_time", "created_at", "updated_at",
}

var messageColumns = []string{
	"m.id", "m.chat_room_id", "m.sender_id", "m.content", "m.is_read", "m.created_at",
}

// ChatRepository handles chat database operations
type ChatRepository struct {
	db *pgxpool.Pool
	sb squirrel.StatementBuilderType
}

// NewChatRepository creates a new ChatRepository
func NewChatRepository(db *pgxpool.Pool) *ChatRepository {
	return &ChatRepository{
		db: db,
		sb: newStatementBuilder(),
	}
}

func scanRoom(row interface{ Scan(...any) error }) (*models.ChatRoom, error) {
	room := &models.ChatRoom{}
	err := row.Scan(
		&room.ID, &room.Participants.Low, &room.Participants.High,
		&room.LastMessage, &room.LastMessageTime, &room.CreatedAt, &room.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return room, nil
}

func scanMessage(row interface{ Scan(...any) error }) (*models.ChatMessage, error) {
	msg := &models.ChatMessage{Sender: &models.User{}}
	targets := []any{&msg.ID, &msg.ChatRoomID, &msg.SenderID, &msg.Content, &msg.IsRead, &msg.CreatedAt}
	targets = append(targets, authorScanTargets(msg.Sender)...)
	if err := row.Scan(targets...); err != nil {
		return nil, err
	}
	return msg, nil
}

func (r *ChatRepository) selectMessages() squirrel.SelectBuilder {
	return r.sb.Select(append(append([]string{}, messageColumns...), authorColumns("u")...)...).
		From("chat_messages m").
		Join("users u ON u.id = m.sender_id")
}

// FindOrCreateRoom returns the room for pair, inserting it when absent. The
// unique pair constraint decides the winner between concurrent callers;
// created reports whether this call inserted the row.
func (r *ChatRepository) FindOrCreateRoom(ctx context.Context, pair models.ParticipantPair) (*models.ChatRoom, bool, error) {
	insertSQL, insertArgs, err := r.sb.Insert("chat_rooms").
		Columns("user_low_id", "user_high_id").
		Values(pair.Low, pair.High).
		Suffix("ON CONFLICT (user_low_id, user_high_id) DO NOTHING RETURNING " + joinColumns(roomColumns)).
		ToSql()
	if err != nil {
		return nil, false, fmt.Errorf("failed to build create room query: %w", err)
	}

	room, err := scanRoom(r.db.QueryRow(ctx, insertSQL, insertArgs...))
	if err == nil {
		return room, true, nil
	}
	if !errors.Is(err, pgx.ErrNoRows) {
		logger.Error().Err(err).Int64("low", pair.Low).Int64("high", pair.High).Msg("Error creating chat room")
		return nil, false, fmt.Errorf("error creating chat room: %w", err)
	}

	// Conflict: another request already created the room.
	sql, args, err := r.sb.Select(roomColumns...).From("chat_rooms").
		Where(squirrel.Eq{"user_low_id": pair.Low, "user_high_id": pair.High}).
		ToSql()
	if err != nil {
		return nil, false, fmt.Errorf("failed to build get room query: %w", err)
	}
	room, err = scanRoom(r.db.QueryRow(ctx, sql, args...))
	if err != nil {
		return nil, false, mapNoRows(err, apperrors.ErrChatRoomNotFound, "error retrieving chat room")
	}
	return room, false, nil
}

// GetRoomByID retrieves a room by ID
func (r *ChatRepository) GetRoomByID(ctx context.Context, roomID int64) (*models.ChatRoom, error) {
	sql, args, err := r.sb.Select(roomColumns...).From("chat_rooms").Where(squirrel.Eq{"id": roomID}).ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build get room query: %w", err)
	}
	room, err := scanRoom(r.db.QueryRow(ctx, sql, args...))
	if err != nil {
		return nil, mapNoRows(err, apperrors.ErrChatRoomNotFound, "error retrieving chat room")
	}
	return room, nil
}

// ListRoomsForUser returns the rooms userID takes part in, most recently
// active first
func (r *ChatRepository) ListRoomsForUser(ctx context.Context, userID int64) ([]*models.ChatRoom, error) {
	sql, args, err := r.sb.Select(roomColumns...).From("chat_rooms").
		Where(squirrel.Or{squirrel.Eq{"user_low_id": userID}, squirrel.Eq{"user_high_id": userID}}).
		OrderBy("updated_at DESC", "id DESC").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build list rooms query: %w", err)
	}

	rows, err := r.db.Query(ctx, sql, args...)
	if err != nil {
		return nil, fmt.Errorf("error listing chat rooms: %w", err)
	}
	defer rows.Close()

	var rooms []*models.ChatRoom
	for rows.Next() {
		room, err := scanRoom(rows)
		if err != nil {
			return nil, fmt.Errorf("error scanning chat room row: %w", err)
		}
		rooms = append(rooms, room)
	}
	return rooms, rows.Err()
}

// lockRoom takes a row lock on the room for the rest of the transaction.
func (r *ChatRepository) lockRoom(ctx context.Context, tx pgx.Tx, roomID int64) error {
	sql, args, err := r.sb.Select("id").From("chat_rooms").
		Where(squirrel.Eq{"id": roomID}).
		Suffix("FOR UPDATE").
		ToSql()
	if err != nil {
		return fmt.Errorf("failed to build lock room query: %w", err)
	}
	var id int64
	if err := tx.QueryRow(ctx, sql, args...).Scan(&id); err != nil {
		return mapNoRows(err, apperrors.ErrChatRoomNotFound, "error locking chat room")
	}
	return nil
}

// CreateMessage inserts msg and moves the room's last-message mirror to it in
// the same transaction.
func (r *ChatRepository) CreateMessage(ctx context.Context, msg *models.ChatMessage) error {
	return db.WithTx(ctx, r.db, func(ctx context.Context, tx pgx.Tx) error {
		if err := r.lockRoom(ctx, tx, msg.ChatRoomID); err != nil {
			return err
		}

		sql, args, err := r.sb.Insert("chat_messages").
			Columns("chat_room_id", "sender_id", "content", "is_read").
			Values(msg.ChatRoomID, msg.SenderID, msg.Content, false).
			Suffix("RETURNING id, is_read, created_at").
			ToSql()
		if err != nil {
			return fmt.Errorf("failed to build create message query: %w", err)
		}
		if err := tx.QueryRow(ctx, sql, args...).Scan(&msg.ID, &msg.IsRead, &msg.CreatedAt); err != nil {
			logger.Error().Err(err).Int64("roomID", msg.ChatRoomID).Msg("Error inserting chat message")
			return fmt.Errorf("error creating chat message: %w", err)
		}

		sql, args, err = r.sb.Update("chat_rooms").
			Set("last_message", msg.Content).
			Set("last_message_time", msg.CreatedAt).
			Set("updated_at", squirrel.Expr("NOW()")).
			Where(squirrel.Eq{"id": msg.ChatRoomID}).
			Where(squirrel.Or{
				squirrel.Eq{"last_message_time": nil},
				squirrel.LtOrEq{"last_message_time": msg.CreatedAt},
			}).
			ToSql()
		if err != nil {
			return fmt.Errorf("failed to build update room mirror query: %w", err)
		}
		if _, err := tx.Exec(ctx, sql, args...); err != nil {
			return fmt.Errorf("error updating chat room last message: %w", err)
		}
		return nil
	})
}

// GetMessageByID retrieves a message with its sender
func (r *ChatRepository) GetMessageByID(ctx context.Context, messageID int64) (*models.ChatMessage, error) {
	sql, args, err := r.selectMessages().Where(squirrel.Eq{"m.id": messageID}).ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build get message query: %w", err)
	}
	msg, err := scanMessage(r.db.QueryRow(ctx, sql, args...))
	if err != nil {
		return nil, mapNoRows(err, apperrors.ErrChatMessageNotFound, "error retrieving chat message")
	}
	return msg, nil
}

// LatestMessage returns the newest message of a room, or nil when the room
// is empty.
func (r *ChatRepository) LatestMessage(ctx context.Context, roomID int64) (*models.ChatMessage, error) {
	sql, args, err := r.selectMessages().
		Where(squirrel.Eq{"m.chat_room_id": roomID}).
		OrderBy("m.created_at DESC", "m.id DESC").
		Limit(1).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build latest message query: %w", err)
	}
	msg, err := scanMessage(r.db.QueryRow(ctx, sql, args...))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("error retrieving latest message: %w", err)
	}
	return msg, nil
}

func participantRooms(userID int64) squirrel.Sqlizer {
	return squirrel.Expr(
		"m.chat_room_id IN (SELECT id FROM chat_rooms WHERE user_low_id = ? OR user_high_id = ?)",
		userID, userID,
	)
}

// ListMessages returns messages from the participant's rooms, newest first
func (r *ChatRepository) ListMessages(ctx context.Context, filter MessageFilter) ([]*models.ChatMessage, int64, error) {
	conds := squirrel.And{participantRooms(filter.ParticipantID)}
	if filter.ChatRoomID != nil {
		conds = append(conds, squirrel.Eq{"m.chat_room_id": *filter.ChatRoomID})
	}

	total, err := count(ctx, r.db, r.sb.Select("COUNT(*)").From("chat_messages m").Where(conds))
	if err != nil {
		return nil, 0, err
	}

	b := r.selectMessages().Where(conds).
		OrderBy("m.created_at DESC", "m.id DESC").
		Offset(filter.Offset)
	if filter.Limit > 0 {
		b = b.Limit(filter.Limit)
	}
	sql, args, err := b.ToSql()
	if err != nil {
		return nil, 0, fmt.Errorf("failed to build list messages query: %w", err)
	}

	rows, err := r.db.Query(ctx, sql, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("error listing chat messages: %w", err)
	}
	defer rows.Close()

	var messages []*models.ChatMessage
	for rows.Next() {
		msg, err := scanMessage(rows)
		if err != nil {
			return nil, 0, fmt.Errorf("error scanning chat message row: %w", err)
		}
		messages = append(messages, msg)
	}
	return messages, total, rows.Err()
}

// DeleteMessage removes a message and recomputes the room mirror from the
// newest remaining message.
func (r *ChatRepository) DeleteMessage(ctx context.Context, messageID int64) error {
	return db.WithTx(ctx, r.db, func(ctx context.Context, tx pgx.Tx) error {
		var roomID int64
		sql, args, err := r.sb.Select("chat_room_id").From("chat_messages").Where(squirrel.Eq{"id": messageID}).ToSql()
		if err != nil {
			return fmt.Errorf("failed to build get message room query: %w", err)
		}
		if err := tx.QueryRow(ctx, sql, args...).Scan(&roomID); err != nil {
			return mapNoRows(err, apperrors.ErrChatMessageNotFound, "error retrieving chat message")
		}

		if err := r.lockRoom(ctx, tx, roomID); err != nil {
			return err
		}

		sql, args, err = r.sb.Delete("chat_messages").Where(squirrel.Eq{"id": messageID}).ToSql()
		if err != nil {
			return fmt.Errorf("failed to build delete message query: %w", err)
		}
		tag, err := tx.Exec(ctx, sql, args...)
		if err != nil {
			return fmt.Errorf("error deleting chat message: %w", err)
		}
		if tag.RowsAffected() == 0 {
			return apperrors.ErrChatMessageNotFound
		}

		// NULLs out the mirror when the room is now empty. updated_at is left
		// alone: a deletion is not activity.
		_, err = tx.Exec(ctx, `
			UPDATE chat_rooms SET
				last_message = latest.content,
				last_message_time = latest.created_at
			FROM (SELECT $1::BIGINT AS room_id) target
			LEFT JOIN LATERAL (
				SELECT content, created_at FROM chat_messages
				WHERE chat_room_id = target.room_id
				ORDER BY created_at DESC, id DESC
				LIMIT 1
			) latest ON TRUE
			WHERE chat_rooms.id = target.room_id`, roomID)
		if err != nil {
			return fmt.Errorf("error recomputing chat room last message: %w", err)
		}
		return nil
	})
}

// CountUnread counts unread messages in roomID not sent by viewerID
func (r *ChatRepository) CountUnread(ctx context.Context, roomID, viewerID int64) (int64, error) {
	return count(ctx, r.db, r.sb.Select("COUNT(*)").From("chat_messages").
		Where(squirrel.Eq{"chat_room_id": roomID, "is_read": false}).
		Where(squirrel.NotEq{"sender_id": viewerID}))
}

// MarkRead flags every message in roomID not sent by viewerID as read and
// returns how many rows changed
func (r *ChatRepository) MarkRead(ctx context.Context, roomID, viewerID int64) (int64, error) {
	sql, args, err := r.sb.Update("chat_messages").
		Set("is_read", true).
		Where(squirrel.Eq{"chat_room_id": roomID, "is_read": false}).
		Where(squirrel.NotEq{"sender_id": viewerID}).
		ToSql()
	if err != nil {
		return 0, fmt.Errorf("failed to build mark read query: %w", err)
	}
	tag, err := r.db.Exec(ctx, sql, args...)
	if err != nil {
		logger.Error().Err(err).Int64("roomID", roomID).Int64("viewerID", viewerID).Msg("Error marking messages read")
		return 0, fmt.Errorf("error marking messages read: %w", err)
	}
	return tag.RowsAffected(), nil
}
