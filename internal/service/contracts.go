package service

import (
	"context"                         // Request-scoped context
	"contract_system/internal/domain" // Importing domain models
	"contract_system/internal/notify" // Recipient notifications
	"contract_system/internal/utils"  // Cache helpers
	"errors"                          // Error comparison
	"fmt"                             // Error wrapping
	"strconv"                         // Cache key formatting
	"strings"                         // String manipulation
	"time"                            // Timestamps and TTLs

	"github.com/redis/go-redis/v9" // Redis client
	"github.com/sirupsen/logrus"   // Logrus for structured logging
	"gorm.io/gorm"                 // GORM ORM library
	"gorm.io/gorm/clause"          // Upsert and locking clauses
)

const (
	contractCachePrefix      = "contract:"
	contractsListCachePrefix = "contracts:list:"
	contractsGenKey          = "contracts:gen"
)

// ContractService implements the contract lifecycle: create, send, sign
type ContractService struct {
	db                *gorm.DB
	rdb               *redis.Client
	notifier          notify.Notifier
	cacheTTL          time.Duration
	maxSignatureBytes int
	now               func() time.Time
}

// NewContractService builds a ContractService; rdb may be nil to disable caching
func NewContractService(db *gorm.DB, rdb *redis.Client, notifier notify.Notifier, cacheTTL time.Duration, maxSignatureBytes int) *ContractService {
	return &ContractService{
		db:                db,
		rdb:               rdb,
		notifier:          notifier,
		cacheTTL:          cacheTTL,
		maxSignatureBytes: maxSignatureBytes,
		now:               time.Now,
	}
}

// Actor is the authenticated caller of an operation
type Actor struct {
	UserID uint
	Role   string
}

func (a Actor) owns(c *domain.Contract) bool {
	return a.Role == domain.RoleAdmin || (a.UserID != 0 && a.UserID == c.CreatedByID)
}

// CreateContractInput carries the fields of a new contract
type CreateContractInput struct {
	Title       string
	Content     string
	CreatedByID uint
}

// UpdateContractInput carries optional title/content changes
type UpdateContractInput struct {
	Title   *string
	Content *string
}

// ContractFilter narrows a contract listing. Zero values match everything;
// PageSize 0 returns all rows.
type ContractFilter struct {
	Status      domain.ContractStatus
	CreatedByID uint
	SignedByID  uint
	Page        int
	PageSize    int
}

func (f ContractFilter) cacheKey(gen int64) string {
	return contractsListCachePrefix +
		"g" + strconv.FormatInt(gen, 10) +
		":status=" + string(f.Status) +
		":created_by=" + strconv.FormatUint(uint64(f.CreatedByID), 10) +
		":signed_by=" + strconv.FormatUint(uint64(f.SignedByID), 10) +
		":page=" + strconv.Itoa(f.Page) +
		":size=" + strconv.Itoa(f.PageSize)
}

type contractPage struct {
	Contracts []domain.Contract `json:"contracts"`
	Total     int64             `json:"total"`
}

func contractKey(gen int64, id uint) string {
	return contractCachePrefix + "g" + strconv.FormatInt(gen, 10) + ":" + strconv.FormatUint(uint64(id), 10)
}

// cacheGen returns the current contracts cache generation; ok is false when
// Redis cannot be read and the cache should be bypassed.
func (s *ContractService) cacheGen(ctx context.Context) (gen int64, ok bool) {
	gen, err := utils.CacheGeneration(ctx, s.rdb, contractsGenKey)
	if err != nil {
		logrus.WithError(err).Warn("Failed to read contract cache generation")
		return 0, false
	}
	return gen, true
}

// invalidate retires every cached contract and listing by bumping the
// generation, then drops the old items and listings it knows about
func (s *ContractService) invalidate(ctx context.Context, id uint) {
	gen, genErr := utils.CacheGeneration(ctx, s.rdb, contractsGenKey)
	if err := utils.BumpCacheGeneration(ctx, s.rdb, contractsGenKey); err != nil {
		logrus.WithError(err).WithField("contract_id", id).Warn("Failed to invalidate contract cache")
	}
	if genErr == nil {
		if err := utils.DeleteCache(ctx, s.rdb, contractKey(gen, id)); err != nil {
			logrus.WithError(err).WithField("contract_id", id).Warn("Failed to drop cached contract")
		}
	}
	if err := utils.DeleteCachePrefix(ctx, s.rdb, contractsListCachePrefix); err != nil {
		logrus.WithError(err).Warn("Failed to drop cached contract listings")
	}
}

// load fetches a contract with its creator, signer and signatures
func (s *ContractService) load(ctx context.Context, db *gorm.DB, id uint) (*domain.Contract, error) {
	var c domain.Contract
	err := db.WithContext(ctx).
		Preload("CreatedBy").
		Preload("SignedBy").
		Preload("Signatures", func(db *gorm.DB) *gorm.DB { return db.Order("signed_at asc") }).
		First(&c, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrContractNotFound
	} else if err != nil {
		return nil, err
	}
	if c.Signatures == nil {
		c.Signatures = []domain.Signature{}
	}
	return &c, nil
}

// Create stores a new draft contract
func (s *ContractService) Create(ctx context.Context, actor Actor, in CreateContractInput) (*domain.Contract, error) {
	creatorID := in.CreatedByID
	if creatorID == 0 {
		creatorID = actor.UserID // Default to the caller
	}
	// Only admins may create on behalf of someone else
	if creatorID != actor.UserID && actor.Role != domain.RoleAdmin {
		return nil, ErrForbidden
	}
	db := s.db.WithContext(ctx)
	var creator domain.User
	if err := db.Select("id").First(&creator, creatorID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrCreatorNotFound
		}
		return nil, err
	}
	c := domain.Contract{
		Title:       strings.TrimSpace(in.Title),
		Content:     in.Content,
		Status:      domain.StatusDraft,
		CreatedByID: creatorID,
	}
	if err := db.Create(&c).Error; err != nil {
		return nil, fmt.Errorf("create contract: %w", err)
	}
	logrus.WithFields(logrus.Fields{
		"contract_id":   c.ID,         // Contract ID
		"created_by_id": creatorID,    // Creator user ID
		"actor_id":      actor.UserID, // Caller user ID
	}).Info("Contract created")
	s.invalidate(ctx, c.ID)
	return s.load(ctx, s.db, c.ID)
}

// Get returns a contract by ID, served from cache when possible. The
// generation is read before the database so a fill that races a mutation
// lands under a retired key.
func (s *ContractService) Get(ctx context.Context, id uint) (*domain.Contract, error) {
	gen, cacheable := s.cacheGen(ctx)
	var cached domain.Contract
	if cacheable {
		if found, err := utils.GetCache(ctx, s.rdb, contractKey(gen, id), &cached); err == nil && found {
			return &cached, nil
		}
	}
	c, err := s.load(ctx, s.db, id)
	if err != nil {
		return nil, err
	}
	if cacheable {
		_ = utils.SetCache(ctx, s.rdb, contractKey(gen, id), c, s.cacheTTL)
	}
	return c, nil
}

// List returns contracts newest first together with the unpaged total
func (s *ContractService) List(ctx context.Context, f ContractFilter) ([]domain.Contract, int64, error) {
	if f.Status != "" && !f.Status.Valid() {
		return nil, 0, fmt.Errorf("%w: %q", ErrInvalidStatus, f.Status)
	}
	gen, cacheable := s.cacheGen(ctx)
	var cached contractPage
	if cacheable {
		if found, err := utils.GetCache(ctx, s.rdb, f.cacheKey(gen), &cached); err == nil && found {
			return cached.Contracts, cached.Total, nil
		}
	}

	query := s.db.WithContext(ctx).Model(&domain.Contract{})
	if f.Status != "" {
		query = query.Where("status = ?", f.Status) // Filter by status
	}
	if f.CreatedByID != 0 {
		query = query.Where("created_by_id = ?", f.CreatedByID) // Filter by creator
	}
	if f.SignedByID != 0 {
		query = query.Where("signed_by_id = ?", f.SignedByID) // Filter by recipient
	}
	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("count contracts: %w", err)
	}
	if f.PageSize > 0 {
		query = query.Offset(pageOffset(f.Page, f.PageSize)).Limit(f.PageSize)
	}
	contracts := make([]domain.Contract, 0)
	err := query.
		Preload("CreatedBy").
		Preload("SignedBy").
		Preload("Signatures").
		Order("created_at desc").Order("id desc").
		Find(&contracts).Error
	if err != nil {
		return nil, 0, fmt.Errorf("fetch contracts: %w", err)
	}
	for i := range contracts {
		if contracts[i].Signatures == nil {
			contracts[i].Signatures = []domain.Signature{}
		}
	}
	if cacheable {
		_ = utils.SetCache(ctx, s.rdb, f.cacheKey(gen), contractPage{Contracts: contracts, Total: total}, s.cacheTTL)
	}
	return contracts, total, nil
}

// Update changes the title or content of a draft contract
func (s *ContractService) Update(ctx context.Context, actor Actor, id uint, in UpdateContractInput) (*domain.Contract, error) {
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var c domain.Contract
		if err := tx.First(&c, id).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrContractNotFound
			}
			return err
		}
		if !actor.owns(&c) {
			return ErrForbidden
		}
		if !c.Status.Editable() {
			return ErrNotDraft
		}
		changes := map[string]any{}
		if in.Title != nil {
			changes["title"] = strings.TrimSpace(*in.Title)
		}
		if in.Content != nil {
			changes["content"] = *in.Content
		}
		if len(changes) == 0 {
			return nil
		}
		// Guard on status so a concurrent send/sign wins over the edit
		res := tx.Model(&domain.Contract{}).Where("id = ? AND status = ?", id, domain.StatusDraft).Updates(changes)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return ErrNotDraft
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	s.invalidate(ctx, id)
	return s.load(ctx, s.db, id)
}

// Delete removes a contract and its signatures
func (s *ContractService) Delete(ctx context.Context, actor Actor, id uint) error {
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var c domain.Contract
		if err := tx.First(&c, id).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrContractNotFound
			}
			return err
		}
		if !actor.owns(&c) {
			return ErrForbidden
		}
		if err := tx.Where("contract_id = ?", id).Delete(&domain.Signature{}).Error; err != nil {
			return err
		}
		return tx.Delete(&domain.Contract{}, id).Error
	})
	if err != nil {
		return err
	}
	logrus.WithFields(logrus.Fields{
		"contract_id": id,           // Contract ID
		"actor_id":    actor.UserID, // Caller user ID
	}).Info("Contract deleted")
	s.invalidate(ctx, id)
	return nil
}

// Send assigns the contract to the user with clientEmail, creating that user
// when unknown, and marks the contract sent.
func (s *ContractService) Send(ctx context.Context, actor Actor, id uint, clientEmail string) (*domain.Contract, error) {
	email := NormalizeEmail(clientEmail)
	var recipient domain.User
	createdRecipient := false
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var c domain.Contract
		if err := tx.First(&c, id).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrContractNotFound
			}
			return err
		}
		if !actor.owns(&c) {
			return ErrForbidden
		}
		if !c.Status.CanSend() {
			return ErrAlreadySigned
		}
		// Find or create the client user
		err := tx.Where("email = ?", email).First(&recipient).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			recipient = domain.User{Email: email, Name: strings.SplitN(email, "@", 2)[0], Role: domain.RoleClient}
			res := tx.Clauses(clause.OnConflict{Columns: []clause.Column{{Name: "email"}}, DoNothing: true}).Create(&recipient)
			if res.Error != nil {
				return fmt.Errorf("create recipient: %w", res.Error)
			}
			if res.RowsAffected == 0 {
				// A concurrent send created the same recipient; the locking read sees its commit
				recipient = domain.User{}
				err := tx.Clauses(clause.Locking{Strength: "SHARE"}).Where("email = ?", email).First(&recipient).Error
				if err != nil {
					return fmt.Errorf("load recipient: %w", err)
				}
			} else {
				createdRecipient = true
			}
		} else if err != nil {
			return err
		}
		now := s.now()
		res := tx.Model(&domain.Contract{}).
			Where("id = ? AND status <> ?", id, domain.StatusSigned).
			Updates(map[string]any{
				"status":       domain.StatusSent, // Mark as sent
				"sent_at":      now,               // Sent timestamp
				"signed_by_id": recipient.ID,      // Intended signer
			})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return ErrAlreadySigned // Signed between read and update
		}
		return nil
	})
	if err != nil {
		if !isClientError(err) {
			logrus.WithFields(logrus.Fields{
				"contract_id": id,          // Contract ID
				"email":       email,       // Recipient email
				"error":       err.Error(), // Error message
			}).Error("Send contract failed")
		}
		return nil, err
	}
	s.invalidate(ctx, id)
	if createdRecipient {
		invalidateUserListings(ctx, s.rdb)
	}
	c, err := s.load(ctx, s.db, id)
	if err != nil {
		return nil, err
	}
	// In a real deployment this would email the recipient
	if err := s.notifier.ContractSent(ctx, c, &recipient); err != nil {
		logrus.WithError(err).WithField("contract_id", id).Warn("Failed to notify recipient")
	}
	return c, nil
}

// Sign records the drawn signature and marks the contract signed. signerID is
// the authenticated caller, or 0 for an anonymous signing link.
func (s *ContractService) Sign(ctx context.Context, id, signerID uint, signature string) (*domain.Contract, error) {
	data, err := normalizeSignature(signature, s.maxSignatureBytes)
	if err != nil {
		return nil, err
	}
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var c domain.Contract
		if err := tx.First(&c, id).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrContractNotFound
			}
			return err
		}
		if !c.Status.CanSign() {
			return ErrAlreadySigned
		}
		now := s.now()
		changes := map[string]any{
			"status":    domain.StatusSigned, // Mark as signed
			"signed_at": now,                 // Signed timestamp
		}
		if c.SignedByID == nil && signerID != 0 {
			changes["signed_by_id"] = signerID // Unsent contract signed by the caller
		}
		// The status guard makes the transition single-winner under concurrent signing
		res := tx.Model(&domain.Contract{}).Where("id = ? AND status <> ?", id, domain.StatusSigned).Updates(changes)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return ErrAlreadySigned
		}
		return tx.Create(&domain.Signature{ContractID: id, Data: data, SignedAt: now}).Error
	})
	if err != nil {
		if !isClientError(err) {
			logrus.WithFields(logrus.Fields{
				"contract_id": id,          // Contract ID
				"signer_id":   signerID,    // Signer user ID
				"error":       err.Error(), // Error message
			}).Error("Sign contract failed")
		}
		return nil, err
	}
	logrus.WithFields(logrus.Fields{
		"contract_id": id,                              // Contract ID
		"signer_id":   signerID,                        // Signer user ID
		"timestamp":   time.Now().Format(time.RFC3339), // Current timestamp
	}).Info("Contract signed")
	s.invalidate(ctx, id)
	return s.load(ctx, s.db, id)
}

func isClientError(err error) bool {
	for _, target := range []error{ErrContractNotFound, ErrForbidden, ErrAlreadySigned, ErrNotDraft, ErrInvalidSignature} {
		if errors.Is(err, target) {
			return true
		}
	}
	return false
}
