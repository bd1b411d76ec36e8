package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/DoyleJ11/debate-room-backend/internal/engine"
)

type roomRecord struct {
	ID               string `gorm:"primaryKey;size:36"`
	CreatorID        string `gorm:"size:64;not null;index"`
	Motion           string `gorm:"type:text"`
	PasscodeHash     string `gorm:"size:72"`
	Phase            string `gorm:"size:16;not null;default:'setup'"`
	Status           string `gorm:"size:16;not null;default:'waiting'"`
	CurrentSlot      int    `gorm:"not null;default:0"`
	StartedAt        *time.Time
	EndedAt          *time.Time
	SpeakerStartedAt *time.Time
	CreatedAt        time.Time
	Participants     []participantRecord `gorm:"foreignKey:RoomID;constraint:OnDelete:CASCADE"`
}

func (roomRecord) TableName() string { return "debate_rooms" }

type participantRecord struct {
	ID       string    `gorm:"primaryKey;size:36"`
	RoomID   string    `gorm:"size:36;not null;uniqueIndex:idx_room_role;uniqueIndex:idx_room_user"`
	UserID   string    `gorm:"size:64;not null;uniqueIndex:idx_room_user"`
	Role     string    `gorm:"size:32;not null;uniqueIndex:idx_room_role"`
	IsReady  bool      `gorm:"not null;default:false"`
	JoinedAt time.Time `gorm:"not null"`
}

func (participantRecord) TableName() string { return "debate_participants" }

type Postgres struct {
	db  *gorm.DB
	log *zap.Logger
}

// OpenPostgres connects and, when migrate is set, creates the tables.
func OpenPostgres(dsn string, migrate bool, log *zap.Logger) (*Postgres, error) {
	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{
		Logger:         logger.Default.LogMode(logger.Silent),
		TranslateError: true,
	})
	if err != nil {
		return nil, fmt.Errorf("connect to database: %w", err)
	}
	if migrate {
		if err := db.AutoMigrate(&roomRecord{}, &participantRecord{}); err != nil {
			return nil, fmt.Errorf("auto-migrate: %w", err)
		}
		log.Info("database migrated")
	}
	log.Info("database connected")
	return &Postgres{db: db, log: log}, nil
}

func (p *Postgres) CreateRoom(ctx context.Context, room engine.Room) error {
	rec := roomRecord{
		ID:               room.ID,
		CreatorID:        room.CreatorID,
		Motion:           room.Motion,
		PasscodeHash:     room.PasscodeHash,
		Phase:            string(room.Phase),
		Status:           string(room.Status),
		CurrentSlot:      room.CurrentSlot,
		StartedAt:        room.StartedAt,
		EndedAt:          room.EndedAt,
		SpeakerStartedAt: room.SpeakerStartedAt,
		CreatedAt:        room.CreatedAt,
	}
	if err := p.db.WithContext(ctx).Create(&rec).Error; err != nil {
		return fmt.Errorf("create room %s: %w", room.ID, err)
	}
	return nil
}

func (p *Postgres) GetRoom(ctx context.Context, id string) (engine.Room, error) {
	var rec roomRecord
	if err := p.db.WithContext(ctx).First(&rec, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return engine.Room{}, engine.ErrRoomNotFound
		}
		return engine.Room{}, fmt.Errorf("get room %s: %w", id, err)
	}
	return engine.Room{
		ID:           rec.ID,
		CreatorID:    rec.CreatorID,
		Motion:       rec.Motion,
		PasscodeHash: rec.PasscodeHash,
		CreatedAt:    rec.CreatedAt,
		TurnState: engine.TurnState{
			Phase:            engine.Phase(rec.Phase),
			Status:           engine.Status(rec.Status),
			CurrentSlot:      rec.CurrentSlot,
			StartedAt:        rec.StartedAt,
			EndedAt:          rec.EndedAt,
			SpeakerStartedAt: rec.SpeakerStartedAt,
		},
	}, nil
}

func (p *Postgres) SetMotion(ctx context.Context, id, motion string) error {
	res := p.db.WithContext(ctx).Model(&roomRecord{}).Where("id = ?", id).Update("motion", motion)
	if res.Error != nil {
		return fmt.Errorf("set motion %s: %w", id, res.Error)
	}
	if res.RowsAffected == 0 {
		return engine.ErrRoomNotFound
	}
	return nil
}

func (p *Postgres) UpdateTurnState(ctx context.Context, id string, prev, next engine.TurnState) error {
	res := p.db.WithContext(ctx).Model(&roomRecord{}).
		Where("id = ? AND status = ? AND phase = ? AND current_slot = ?", id, prev.Status, prev.Phase, prev.CurrentSlot).
		Updates(map[string]any{
			"phase":              string(next.Phase),
			"status":             string(next.Status),
			"current_slot":       next.CurrentSlot,
			"started_at":         next.StartedAt,
			"ended_at":           next.EndedAt,
			"speaker_started_at": next.SpeakerStartedAt,
		})
	if res.Error != nil {
		return fmt.Errorf("update turn state %s: %w", id, res.Error)
	}
	if res.RowsAffected == 0 {
		if _, err := p.GetRoom(ctx, id); err != nil {
			return err
		}
		return ErrStaleTurn
	}
	return nil
}

func (p *Postgres) GetParticipants(ctx context.Context, roomID string) ([]engine.Participant, error) {
	if _, err := p.GetRoom(ctx, roomID); err != nil {
		return nil, err
	}
	var recs []participantRecord
	if err := p.db.WithContext(ctx).Where("room_id = ?", roomID).Order("joined_at ASC").Find(&recs).Error; err != nil {
		return nil, fmt.Errorf("list participants %s: %w", roomID, err)
	}
	out := make([]engine.Participant, 0, len(recs))
	for _, rec := range recs {
		out = append(out, engine.Participant{UserID: rec.UserID, Role: engine.Role(rec.Role), IsReady: rec.IsReady})
	}
	return out, nil
}

func (p *Postgres) AddParticipant(ctx context.Context, roomID string, part engine.Participant) error {
	return p.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var taken []participantRecord
		if err := tx.Where("room_id = ? AND (role = ? OR user_id = ?)", roomID, part.Role, part.UserID).Find(&taken).Error; err != nil {
			return fmt.Errorf("check seat %s: %w", roomID, err)
		}
		for _, t := range taken {
			if t.Role == string(part.Role) {
				return engine.ErrRoleTaken
			}
		}
		if len(taken) > 0 {
			return engine.ErrAlreadySeated
		}

		rec := participantRecord{
			ID:       uuid.NewString(),
			RoomID:   roomID,
			UserID:   part.UserID,
			Role:     string(part.Role),
			IsReady:  part.IsReady,
			JoinedAt: time.Now().UTC(),
		}
		if err := tx.Create(&rec).Error; err != nil {
			if errors.Is(err, gorm.ErrDuplicatedKey) {
				return engine.ErrRoleTaken
			}
			if errors.Is(err, gorm.ErrForeignKeyViolated) {
				return engine.ErrRoomNotFound
			}
			return fmt.Errorf("add participant %s: %w", roomID, err)
		}
		return nil
	})
}

func (p *Postgres) RemoveParticipant(ctx context.Context, roomID, userID string) error {
	res := p.db.WithContext(ctx).Where("room_id = ? AND user_id = ?", roomID, userID).Delete(&participantRecord{})
	if res.Error != nil {
		return fmt.Errorf("remove participant %s: %w", roomID, res.Error)
	}
	if res.RowsAffected == 0 {
		return engine.ErrParticipantNotFound
	}
	return nil
}

func (p *Postgres) SetReady(ctx context.Context, roomID, userID string, ready bool) error {
	res := p.db.WithContext(ctx).Model(&participantRecord{}).
		Where("room_id = ? AND user_id = ?", roomID, userID).
		Update("is_ready", ready)
	if res.Error != nil {
		return fmt.Errorf("set ready %s: %w", roomID, res.Error)
	}
	if res.RowsAffected == 0 {
		return engine.ErrParticipantNotFound
	}
	return nil
}

func (p *Postgres) Close() error {
	sqlDB, err := p.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}
