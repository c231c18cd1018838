package mongo

import (
	"context"
	"errors"
	"time"

	"github.com/samber/oops"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/storefront/credential-service/internal/core/domain"
)

const collectionAccounts = "accounts"

// AccountRepository implements ports.CredentialStore on MongoDB.
type AccountRepository struct {
	col     *mongo.Collection
	timeout time.Duration
}

// NewAccountRepository binds the repository to the accounts collection. A
// non-positive timeout falls back to the package default.
func NewAccountRepository(db *mongo.Database, timeout time.Duration) *AccountRepository {
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	return &AccountRepository{col: db.Collection(collectionAccounts), timeout: timeout}
}

type accountDoc struct {
	ID           string              `bson:"_id"`
	Email        string              `bson:"email"`
	PasswordHash string              `bson:"password_hash"`
	Role         string              `bson:"role"`
	Reset        *domain.ResetDigest `bson:"reset,omitempty"`
	FullName     string              `bson:"full_name,omitempty"`
	Phone        string              `bson:"phone_number,omitempty"`
	CompanyName  string              `bson:"company_name,omitempty"`
	IsBusiness   bool                `bson:"is_business"`
	Address      domain.Address      `bson:"address"`
	CreatedAt    time.Time           `bson:"created_at"`
	UpdatedAt    time.Time           `bson:"updated_at"`
}

func toDoc(a *domain.Account) accountDoc {
	return accountDoc{
		ID:           a.ID,
		Email:        a.Email,
		PasswordHash: a.PasswordHash,
		Role:         a.Role,
		Reset:        a.PendingReset,
		FullName:     a.FullName,
		Phone:        a.Phone,
		CompanyName:  a.CompanyName,
		IsBusiness:   a.IsBusiness,
		Address:      a.Address,
		CreatedAt:    a.CreatedAt,
		UpdatedAt:    a.UpdatedAt,
	}
}

func (d accountDoc) toDomain() *domain.Account {
	a := &domain.Account{
		ID:           d.ID,
		Email:        d.Email,
		PasswordHash: d.PasswordHash,
		Role:         d.Role,
		FullName:     d.FullName,
		Phone:        d.Phone,
		CompanyName:  d.CompanyName,
		IsBusiness:   d.IsBusiness,
		Address:      d.Address,
		CreatedAt:    d.CreatedAt.UTC(),
		UpdatedAt:    d.UpdatedAt.UTC(),
	}
	if d.Reset != nil && d.Reset.Hash != "" {
		a.PendingReset = &domain.ResetDigest{Hash: d.Reset.Hash, ExpiresAt: d.Reset.ExpiresAt.UTC()}
	}
	return a
}

// Create inserts a new account. A taken email or ID yields ErrDuplicateIdentity.
func (r *AccountRepository) Create(ctx context.Context, a *domain.Account) error {
	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	if _, err := r.col.InsertOne(ctx, toDoc(a)); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return domain.ErrDuplicateIdentity
		}
		return storageErr("insert account", err)
	}
	return nil
}

func (r *AccountRepository) FindByEmail(ctx context.Context, email string) (*domain.Account, error) {
	return r.findOne(ctx, "find account by email", bson.M{"email": email})
}

func (r *AccountRepository) FindByID(ctx context.Context, id string) (*domain.Account, error) {
	return r.findOne(ctx, "find account by id", bson.M{"_id": id})
}

// FindByResetHash looks up the account holding a pending reset ticket with
// the given digest. Expiry is checked by the caller.
func (r *AccountRepository) FindByResetHash(ctx context.Context, hash string) (*domain.Account, error) {
	if hash == "" {
		return nil, domain.ErrNotFound
	}
	return r.findOne(ctx, "find account by reset hash", bson.M{"reset.hash": hash})
}

func (r *AccountRepository) findOne(ctx context.Context, op string, filter bson.M) (*domain.Account, error) {
	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	var doc accountDoc
	if err := r.col.FindOne(ctx, filter).Decode(&doc); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, domain.ErrNotFound
		}
		return nil, storageErr(op, err)
	}
	return doc.toDomain(), nil
}

// Update applies patch to one account in a single UpdateOne call. When
// patch.ExpectResetHash is set and the stored hash differs, nothing is
// written and ErrNotFound is returned.
func (r *AccountRepository) Update(ctx context.Context, id string, patch domain.AccountPatch) error {
	if patch.IsEmpty() {
		return nil
	}

	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	filter := bson.M{"_id": id}
	if patch.ExpectResetHash != "" {
		filter["reset.hash"] = patch.ExpectResetHash
	}

	set := bson.M{"updated_at": time.Now().UTC()}
	update := bson.M{"$set": set}
	if patch.PasswordHash != nil {
		set["password_hash"] = *patch.PasswordHash
	}
	switch {
	case patch.SetReset != nil:
		set["reset"] = domain.ResetDigest{Hash: patch.SetReset.Hash, ExpiresAt: patch.SetReset.ExpiresAt.UTC()}
	case patch.ClearReset:
		update["$unset"] = bson.M{"reset": ""}
	}

	res, err := r.col.UpdateOne(ctx, filter, update)
	if err != nil {
		return storageErr("update account", err)
	}
	if res.MatchedCount == 0 {
		return domain.ErrNotFound
	}
	return nil
}

// EnsureIndexes creates the indexes the lookups above depend on.
func (r *AccountRepository) EnsureIndexes(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	indexes := []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "email", Value: 1}},
			Options: options.Index().SetName("email_unique").SetUnique(true),
		},
		{
			Keys:    bson.D{{Key: "reset.hash", Value: 1}},
			Options: options.Index().SetName("reset_hash").SetSparse(true),
		},
	}

	if _, err := r.col.Indexes().CreateMany(ctx, indexes); err != nil {
		return storageErr("ensure account indexes", err)
	}
	return nil
}

func storageErr(op string, err error) error {
	return oops.Code("STORAGE_ERROR").
		In("mongo").
		With("operation", op).
		With("collection", collectionAccounts).
		Wrap(err)
}
