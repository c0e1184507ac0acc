package service

import (
	"context"                         // Request-scoped context
	"contract_system/internal/domain" // Importing domain models
	"contract_system/internal/utils"  // Cache helpers
	"fmt"                             // Error wrapping
	"time"                            // Fixture timestamps

	"github.com/redis/go-redis/v9" // Redis client
	"github.com/sirupsen/logrus"   // Logrus for structured logging
	"gorm.io/gorm"                 // GORM ORM library
)

// SeedPassword is the password of every fixture account
const SeedPassword = "password"

// placeholderSignature is a 1x1 transparent PNG
const placeholderSignature = "data:image/png;base64,iVBORw0KGgoAAAANSUhEUgAAAAEAAAABCAYAAAAfFcSJAAAADUlEQVR42mNkYPhfDwAChwGA60e6kgAAAABJRU5ErkJggg=="

// SeedResult summarizes what a seeding run produced
type SeedResult struct {
	Users      []string `json:"users"`      // Fixture account emails
	Contracts  int      `json:"contracts"`  // Contracts created by this run
	Signatures int      `json:"signatures"` // Signatures created by this run
}

type seedUser struct {
	key, email, name, role string
}

var seedUsers = []seedUser{
	{"admin", "admin@example.com", "Admin User", domain.RoleAdmin},
	{"employer1", "employer1@example.com", "John Smith", domain.RoleClient},
	{"employer2", "employer2@example.com", "Sarah Johnson", domain.RoleClient},
	{"seeker1", "seeker1@example.com", "Mike Davis", domain.RoleSeeker},
	{"seeker2", "seeker2@example.com", "Emily Chen", domain.RoleSeeker},
}

type seedContract struct {
	title, content   string
	status           domain.ContractStatus
	creator, signer  string
	sentAt, signedAt string
}

var seedContracts = []seedContract{
	{
		title:    "Software Developer Employment Contract",
		content:  "This employment contract is between TechCorp Inc. and John Smith for the position of Senior Software Developer. Terms include: salary $120,000/year, benefits package, 2 weeks vacation, health insurance, and standard company policies.",
		status:   domain.StatusSigned,
		creator:  "employer1",
		signer:   "seeker1",
		sentAt:   "2024-12-01",
		signedAt: "2024-12-05",
	},
	{
		title:   "Marketing Manager Position",
		content: "Employment agreement for Marketing Manager position at Global Marketing Solutions. Compensation: $85,000 base salary plus performance bonuses. Benefits include health insurance, dental, 401k matching, and flexible work arrangements.",
		status:  domain.StatusSent,
		creator: "employer2",
		signer:  "seeker2",
		sentAt:  "2024-12-08",
	},
	{
		title:   "Data Analyst Contract",
		content: "Contract for Data Analyst position at DataTech Solutions. This is a 6-month contract with possibility of extension. Rate: $65/hour. Responsibilities include data analysis, reporting, and dashboard creation using SQL, Python, and Tableau.",
		status:  domain.StatusDraft,
		creator: "employer1",
	},
	{
		title:    "UX Designer Employment Agreement",
		content:  "Full-time UX Designer position at Creative Design Studio. Salary: $90,000/year. Benefits package includes health insurance, creative tools stipend, conference attendance budget, and flexible hours.",
		status:   domain.StatusSigned,
		creator:  "employer2",
		signer:   "seeker1",
		sentAt:   "2024-11-20",
		signedAt: "2024-11-25",
	},
}

func seedDate(s string) *time.Time {
	if s == "" {
		return nil
	}
	t, err := time.Parse(time.DateOnly, s)
	if err != nil {
		panic(err) // Fixture dates are constants
	}
	return &t
}

// Seeder populates development fixture data
type Seeder struct {
	db  *gorm.DB
	rdb *redis.Client
}

// NewSeeder returns a Seeder writing to db; rdb may be nil when caching is off
func NewSeeder(db *gorm.DB, rdb *redis.Client) *Seeder {
	return &Seeder{db: db, rdb: rdb}
}

// Seed creates the fixture users, contracts and signatures. Users are matched
// by email and contracts by title, so running it twice creates nothing new.
func (s *Seeder) Seed(ctx context.Context) (*SeedResult, error) {
	hash, err := HashPassword(SeedPassword)
	if err != nil {
		return nil, fmt.Errorf("hash seed password: %w", err)
	}
	result := &SeedResult{}
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		ids := make(map[string]uint, len(seedUsers))
		for _, su := range seedUsers {
			u := domain.User{Email: su.email}
			err := tx.Where(domain.User{Email: su.email}).
				Attrs(domain.User{Password: hash, Name: su.name, Role: su.role}).
				FirstOrCreate(&u).Error
			if err != nil {
				return fmt.Errorf("seed user %s: %w", su.email, err)
			}
			ids[su.key] = u.ID
			result.Users = append(result.Users, u.Email)
		}

		for _, sc := range seedContracts {
			var existing int64
			if err := tx.Model(&domain.Contract{}).Where("title = ?", sc.title).Count(&existing).Error; err != nil {
				return err
			}
			if existing > 0 {
				continue
			}
			c := domain.Contract{
				Title:       sc.title,
				Content:     sc.content,
				Status:      sc.status,
				CreatedByID: ids[sc.creator],
				SentAt:      seedDate(sc.sentAt),
				SignedAt:    seedDate(sc.signedAt),
			}
			if sc.signer != "" {
				signer := ids[sc.signer]
				c.SignedByID = &signer
			}
			if err := tx.Create(&c).Error; err != nil {
				return fmt.Errorf("seed contract %q: %w", sc.title, err)
			}
			result.Contracts++
			if sc.status == domain.StatusSigned {
				sig := domain.Signature{ContractID: c.ID, Data: placeholderSignature, SignedAt: *c.SignedAt}
				if err := tx.Create(&sig).Error; err != nil {
					return fmt.Errorf("seed signature for %q: %w", sc.title, err)
				}
				result.Signatures++
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	// Listings cached before the run no longer match the tables
	if err := utils.BumpCacheGeneration(ctx, s.rdb, contractsGenKey); err != nil {
		logrus.WithError(err).Warn("Failed to invalidate contract cache after seeding")
	}
	if err := utils.DeleteCachePrefix(ctx, s.rdb, contractsListCachePrefix); err != nil {
		logrus.WithError(err).Warn("Failed to drop cached contract listings after seeding")
	}
	invalidateUserListings(ctx, s.rdb)
	logrus.WithFields(logrus.Fields{
		"users":      len(result.Users), // Fixture accounts
		"contracts":  result.Contracts,  // Contracts created
		"signatures": result.Signatures, // Signatures created
	}).Info("Database seeded successfully")
	return result, nil
}
