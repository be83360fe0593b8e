package mongodb

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/samsoft00/gold-standard/internal/core/domain"
	"github.com/samsoft00/gold-standard/internal/core/port"
	"github.com/samsoft00/gold-standard/internal/repository"
)

const adminsCollection = "admins"

// AdminRepository persists administrator credentials in MongoDB.
type AdminRepository struct {
	collection *mongo.Collection
	opTimeout  time.Duration
}

// NewAdminRepository constructs the repository and ensures the unique email index.
func NewAdminRepository(ctx context.Context, db *mongo.Database, opTimeout time.Duration) (*AdminRepository, error) {
	if opTimeout <= 0 {
		opTimeout = 5 * time.Second
	}

	repo := &AdminRepository{
		collection: db.Collection(adminsCollection),
		opTimeout:  opTimeout,
	}

	indexCtx, cancel := context.WithTimeout(ctx, opTimeout)
	defer cancel()

	_, err := repo.collection.Indexes().CreateOne(indexCtx, mongo.IndexModel{
		Keys:    bson.D{{Key: "email", Value: 1}},
		Options: options.Index().SetUnique(true),
	})
	if err != nil {
		return nil, fmt.Errorf("create email index: %w", err)
	}

	return repo, nil
}

type adminDocument struct {
	ID           primitive.ObjectID `bson:"_id,omitempty"`
	Email        string             `bson:"email"`
	Password     string             `bson:"password,omitempty"`
	IsDisabled   bool               `bson:"is_disabled"`
	ResetToken   string             `bson:"reset_token,omitempty"`
	ResetExpires *time.Time         `bson:"reset_expires,omitempty"`
	CreatedAt    time.Time          `bson:"created_at"`
	UpdatedAt    *time.Time         `bson:"updated_at,omitempty"`
	LastLoginAt  *time.Time         `bson:"last_login_at,omitempty"`
	LastLoginIP  *string            `bson:"last_login_ip,omitempty"`
}

func (d adminDocument) toDomain() *domain.Admin {
	return &domain.Admin{
		ID:           d.ID.Hex(),
		Email:        d.Email,
		PasswordHash: d.Password,
		IsDisabled:   d.IsDisabled,
		ResetToken:   d.ResetToken,
		ResetExpires: d.ResetExpires,
		CreatedAt:    d.CreatedAt,
		UpdatedAt:    d.UpdatedAt,
		LastLoginAt:  d.LastLoginAt,
		LastLoginIP:  d.LastLoginIP,
	}
}

func (r *AdminRepository) opContext(ctx context.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(ctx, r.opTimeout)
}

func objectIDFromHex(id string) (primitive.ObjectID, error) {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return primitive.NilObjectID, repository.ErrNotFound
	}
	return oid, nil
}

// Create inserts a new administrator document and returns it with the
// generated id.
func (r *AdminRepository) Create(ctx context.Context, admin domain.Admin) (*domain.Admin, error) {
	opCtx, cancel := r.opContext(ctx)
	defer cancel()

	doc := adminDocument{
		ID:           primitive.NewObjectID(),
		Email:        domain.NormalizeEmail(admin.Email),
		Password:     admin.PasswordHash,
		IsDisabled:   admin.IsDisabled,
		ResetToken:   admin.ResetToken,
		ResetExpires: admin.ResetExpires,
		CreatedAt:    admin.CreatedAt,
		UpdatedAt:    admin.UpdatedAt,
	}
	if doc.CreatedAt.IsZero() {
		doc.CreatedAt = time.Now().UTC()
	}
	if admin.ID != "" {
		oid, err := primitive.ObjectIDFromHex(admin.ID)
		if err != nil {
			return nil, fmt.Errorf("invalid admin id %q: %w", admin.ID, err)
		}
		doc.ID = oid
	}

	if _, err := r.collection.InsertOne(opCtx, doc); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return nil, repository.ErrDuplicate
		}
		return nil, fmt.Errorf("insert admin: %w", err)
	}

	return doc.toDomain(), nil
}

// GetByID loads an administrator by document id.
func (r *AdminRepository) GetByID(ctx context.Context, id string) (*domain.Admin, error) {
	oid, err := objectIDFromHex(id)
	if err != nil {
		return nil, err
	}

	return r.findOne(ctx, bson.M{"_id": oid})
}

// GetByEmail loads an administrator by normalized email.
func (r *AdminRepository) GetByEmail(ctx context.Context, email string) (*domain.Admin, error) {
	return r.findOne(ctx, bson.M{"email": domain.NormalizeEmail(email)})
}

// GetByResetTokenHash loads the administrator holding the given reset token
// fingerprint. Expiry is checked by the caller so an expired token can be
// reported distinctly from an unknown one.
func (r *AdminRepository) GetByResetTokenHash(ctx context.Context, tokenHash string) (*domain.Admin, error) {
	if tokenHash == "" {
		return nil, repository.ErrNotFound
	}
	return r.findOne(ctx, bson.M{"reset_token": tokenHash})
}

func (r *AdminRepository) findOne(ctx context.Context, filter bson.M) (*domain.Admin, error) {
	opCtx, cancel := r.opContext(ctx)
	defer cancel()

	var doc adminDocument
	if err := r.collection.FindOne(opCtx, filter).Decode(&doc); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, repository.ErrNotFound
		}
		return nil, fmt.Errorf("find admin: %w", err)
	}

	return doc.toDomain(), nil
}

// UpdatePassword replaces the stored password hash.
func (r *AdminRepository) UpdatePassword(ctx context.Context, id string, passwordHash string, changedAt time.Time) error {
	oid, err := objectIDFromHex(id)
	if err != nil {
		return err
	}

	update := bson.M{"$set": bson.M{
		"password":   passwordHash,
		"updated_at": changedAt.UTC(),
	}}

	return r.updateOne(ctx, bson.M{"_id": oid}, update)
}

// SetResetToken stores the reset token fingerprint and its expiry.
func (r *AdminRepository) SetResetToken(ctx context.Context, id string, tokenHash string, expiresAt time.Time) error {
	oid, err := objectIDFromHex(id)
	if err != nil {
		return err
	}

	update := bson.M{"$set": bson.M{
		"reset_token":   tokenHash,
		"reset_expires": expiresAt.UTC(),
		"updated_at":    time.Now().UTC(),
	}}

	return r.updateOne(ctx, bson.M{"_id": oid}, update)
}

// ResetPassword sets the new hash and clears the reset token atomically.
func (r *AdminRepository) ResetPassword(ctx context.Context, id string, passwordHash string, changedAt time.Time) error {
	oid, err := objectIDFromHex(id)
	if err != nil {
		return err
	}

	update := bson.M{
		"$set": bson.M{
			"password":   passwordHash,
			"updated_at": changedAt.UTC(),
		},
		"$unset": bson.M{
			"reset_token":   "",
			"reset_expires": "",
		},
	}

	return r.updateOne(ctx, bson.M{"_id": oid}, update)
}

// RecordLogin stamps the last successful login time and source address.
func (r *AdminRepository) RecordLogin(ctx context.Context, id string, ip string, at time.Time) error {
	oid, err := objectIDFromHex(id)
	if err != nil {
		return err
	}

	update := bson.M{"$set": bson.M{
		"last_login_at": at.UTC(),
		"last_login_ip": ip,
	}}

	return r.updateOne(ctx, bson.M{"_id": oid}, update)
}

func (r *AdminRepository) updateOne(ctx context.Context, filter, update bson.M) error {
	opCtx, cancel := r.opContext(ctx)
	defer cancel()

	result, err := r.collection.UpdateOne(opCtx, filter, update)
	if err != nil {
		return fmt.Errorf("update admin: %w", err)
	}
	if result.MatchedCount == 0 {
		return repository.ErrNotFound
	}

	return nil
}

var _ port.AdminRepository = (*AdminRepository)(nil)
