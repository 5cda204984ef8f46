// Package seed fills a development database with realistic fixtures.
package seed

import (
	"fmt"
	"math/rand"
	"time"

	"github.com/brianvoe/gofakeit/v7"
	"github.com/connectly/backend/internal/logger"
	"github.com/connectly/backend/internal/models"
	"github.com/connectly/backend/internal/util"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

// Seeder handles database seeding operations
type Seeder struct {
	db *gorm.DB
}

// NewSeeder creates a new seeder instance
func NewSeeder(db *gorm.DB) *Seeder {
	_ = gofakeit.Seed(time.Now().UnixNano())
	return &Seeder{db: db}
}

var skillPool = []string{
	"go", "python", "typescript", "react", "kubernetes", "postgresql",
	"product management", "data analysis", "machine learning", "sales",
	"marketing", "recruiting", "design", "sql", "aws", "terraform",
}

var hashtagPool = []string{
	"hiring", "opentowork", "golang", "careers", "leadership",
	"remotework", "startups", "engineering", "productivity",
}

// SeedDev seeds the development database with realistic data
func (s *Seeder) SeedDev() error {
	log := func(msg string) {
		logger.Log.Info(msg)
	}

	log("Creating users...")
	users, err := s.seedUsers(50)
	if err != nil {
		return fmt.Errorf("failed to seed users: %w", err)
	}

	log("Creating follow edges...")
	if err := s.seedFollows(users, 200); err != nil {
		return fmt.Errorf("failed to seed follows: %w", err)
	}

	log("Creating connections...")
	if err := s.seedConnections(users, 100); err != nil {
		return fmt.Errorf("failed to seed connections: %w", err)
	}

	log("Creating posts...")
	posts, err := s.seedPosts(users, 300)
	if err != nil {
		return fmt.Errorf("failed to seed posts: %w", err)
	}

	log("Creating engagement...")
	if err := s.seedEngagement(users, posts); err != nil {
		return fmt.Errorf("failed to seed engagement: %w", err)
	}

	log("Creating jobs and applications...")
	if err := s.seedJobs(users, 40); err != nil {
		return fmt.Errorf("failed to seed jobs: %w", err)
	}

	log("Creating messages...")
	if err := s.seedMessages(users, 400); err != nil {
		return fmt.Errorf("failed to seed messages: %w", err)
	}

	return nil
}

// SeedTest seeds the test database with a small fixed roster
func (s *Seeder) SeedTest() error {
	specs := []struct {
		first, last, email string
	}{
		{"Alice", "Smith", "alice@example.com"},
		{"Bob", "Johnson", "bob@example.com"},
		{"Charlie", "Brown", "charlie@example.com"},
		{"Diana", "Prince", "diana@example.com"},
		{"Eve", "Wilson", "eve@example.com"},
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte("password123"), bcrypt.DefaultCost)
	if err != nil {
		return fmt.Errorf("failed to hash password: %w", err)
	}

	for _, spec := range specs {
		var user models.User
		if err := s.db.Where("email = ?", spec.email).First(&user).Error; err == nil {
			continue
		}

		user = models.User{
			Email:        spec.email,
			FirstName:    spec.first,
			LastName:     spec.last,
			PasswordHash: string(hashed),
			Headline:     gofakeit.JobTitle(),
		}
		if err := s.db.Create(&user).Error; err != nil {
			return fmt.Errorf("failed to create test user %s: %w", spec.email, err)
		}
	}
	return nil
}

func (s *Seeder) seedUsers(count int) ([]models.User, error) {
	hashed, err := bcrypt.GenerateFromPassword([]byte("password123"), bcrypt.DefaultCost)
	if err != nil {
		return nil, err
	}

	users := make([]models.User, 0, count)
	for i := 0; i < count; i++ {
		skills := make(models.StringArray, 0, 4)
		for _, idx := range rand.Perm(len(skillPool))[:rand.Intn(4)+1] {
			skills = append(skills, skillPool[idx])
		}

		user := models.User{
			Email:        fmt.Sprintf("user%d.%s", i, gofakeit.Email()),
			FirstName:    gofakeit.FirstName(),
			LastName:     gofakeit.LastName(),
			PasswordHash: string(hashed),
			Headline:     gofakeit.JobTitle() + " at " + gofakeit.Company(),
			Bio:          gofakeit.Sentence(15),
			Location:     gofakeit.City() + ", " + gofakeit.Country(),
			Skills:       skills,
			Experience: []models.ExperienceEntry{
				{
					Title:     gofakeit.JobTitle(),
					Company:   gofakeit.Company(),
					StartDate: "2021-03",
					Current:   true,
				},
			},
			Education: []models.EducationEntry{
				{
					School:    gofakeit.Company() + " University",
					Degree:    "BSc",
					Field:     gofakeit.HackerNoun(),
					StartYear: 2014,
					EndYear:   2018,
				},
			},
			IsPrivate: rand.Intn(10) == 0,
		}
		if err := s.db.Create(&user).Error; err != nil {
			return nil, err
		}
		users = append(users, user)
	}
	return users, nil
}

func (s *Seeder) seedFollows(users []models.User, count int) error {
	for i := 0; i < count; i++ {
		a := users[rand.Intn(len(users))]
		b := users[rand.Intn(len(users))]
		if a.ID == b.ID {
			continue
		}

		follow := models.Follow{FollowerID: a.ID, FollowingID: b.ID}
		err := s.db.Transaction(func(tx *gorm.DB) error {
			if err := tx.Create(&follow).Error; err != nil {
				return err
			}
			if err := tx.Model(&models.User{}).Where("id = ?", b.ID).
				UpdateColumn("follower_count", gorm.Expr("follower_count + 1")).Error; err != nil {
				return err
			}
			return tx.Model(&models.User{}).Where("id = ?", a.ID).
				UpdateColumn("following_count", gorm.Expr("following_count + 1")).Error
		})
		if err != nil {
			// Duplicate pair, skip
			continue
		}
	}
	return nil
}

func (s *Seeder) seedConnections(users []models.User, count int) error {
	now := time.Now()
	for i := 0; i < count; i++ {
		a := users[rand.Intn(len(users))]
		b := users[rand.Intn(len(users))]
		if a.ID == b.ID {
			continue
		}

		request := models.ConnectionRequest{
			RequesterID: a.ID,
			RecipientID: b.ID,
			Message:     gofakeit.Sentence(8),
			Status:      models.RequestAccepted,
			RespondedAt: &now,
		}
		err := s.db.Transaction(func(tx *gorm.DB) error {
			if err := tx.Create(&request).Error; err != nil {
				return err
			}
			edges := []models.Connection{
				{UserID: a.ID, ConnectedUserID: b.ID},
				{UserID: b.ID, ConnectedUserID: a.ID},
			}
			if err := tx.Create(&edges).Error; err != nil {
				return err
			}
			return tx.Model(&models.User{}).
				Where("id IN ?", []string{a.ID, b.ID}).
				UpdateColumn("connection_count", gorm.Expr("connection_count + 1")).Error
		})
		if err != nil {
			continue
		}
	}
	return nil
}

func (s *Seeder) seedPosts(users []models.User, count int) ([]models.Post, error) {
	posts := make([]models.Post, 0, count)
	for i := 0; i < count; i++ {
		author := users[rand.Intn(len(users))]

		content := gofakeit.Sentence(20)
		if rand.Intn(2) == 0 {
			content += " #" + hashtagPool[rand.Intn(len(hashtagPool))]
		}

		visibility := models.VisibilityPublic
		if rand.Intn(5) == 0 {
			visibility = models.VisibilityConnections
		}

		post := models.Post{
			AuthorID:   author.ID,
			Content:    content,
			Type:       models.PostTypeText,
			Visibility: visibility,
			Hashtags:   models.StringArray(util.ExtractHashtags(content)),
			CreatedAt:  time.Now().Add(-time.Duration(rand.Intn(14*24)) * time.Hour),
		}
		if err := s.db.Create(&post).Error; err != nil {
			return nil, err
		}
		posts = append(posts, post)
	}
	return posts, nil
}

func (s *Seeder) seedEngagement(users []models.User, posts []models.Post) error {
	for i := range posts {
		post := &posts[i]

		likers := rand.Perm(len(users))[:rand.Intn(8)]
		for _, idx := range likers {
			if users[idx].ID == post.AuthorID {
				continue
			}
			like := models.PostLike{PostID: post.ID, UserID: users[idx].ID}
			if err := s.db.Create(&like).Error; err != nil {
				continue
			}
			post.LikeCount++
		}

		for j := 0; j < rand.Intn(4); j++ {
			commenter := users[rand.Intn(len(users))]
			comment := models.PostComment{
				PostID:  post.ID,
				UserID:  commenter.ID,
				Content: gofakeit.Sentence(10),
			}
			if err := s.db.Create(&comment).Error; err != nil {
				continue
			}
			post.CommentCount++
		}

		sharers := rand.Perm(len(users))[:rand.Intn(3)]
		for _, idx := range sharers {
			if users[idx].ID == post.AuthorID {
				continue
			}
			share := models.PostShare{PostID: post.ID, UserID: users[idx].ID}
			if err := s.db.Create(&share).Error; err != nil {
				continue
			}
			post.ShareCount++
		}

		err := s.db.Model(post).UpdateColumns(map[string]interface{}{
			"like_count":       post.LikeCount,
			"comment_count":    post.CommentCount,
			"share_count":      post.ShareCount,
			"engagement_score": post.ComputeEngagement(),
		}).Error
		if err != nil {
			return err
		}
	}
	return nil
}

func (s *Seeder) seedJobs(users []models.User, count int) error {
	types := []models.JobType{
		models.JobFullTime, models.JobPartTime, models.JobContract,
		models.JobInternship, models.JobRemote,
	}
	levels := []models.ExperienceLevel{
		models.LevelEntry, models.LevelMid, models.LevelSenior, models.LevelExecutive,
	}

	for i := 0; i < count; i++ {
		poster := users[rand.Intn(len(users))]
		salaryMin := (rand.Intn(10) + 5) * 10000
		salaryMax := salaryMin + rand.Intn(8)*10000

		skills := make(models.StringArray, 0, 3)
		for _, idx := range rand.Perm(len(skillPool))[:rand.Intn(3)+1] {
			skills = append(skills, skillPool[idx])
		}

		job := models.Job{
			PosterID:    poster.ID,
			Title:       gofakeit.JobTitle(),
			Company:     gofakeit.Company(),
			Description: gofakeit.Paragraph(2, 4, 12, " "),
			Location:    gofakeit.City(),
			Type:        types[rand.Intn(len(types))],
			Experience:  levels[rand.Intn(len(levels))],
			Skills:      skills,
			SalaryMin:   &salaryMin,
			SalaryMax:   &salaryMax,
			IsActive:    rand.Intn(6) != 0,
		}
		if err := s.db.Create(&job).Error; err != nil {
			return err
		}

		applicants := rand.Perm(len(users))[:rand.Intn(5)]
		for _, idx := range applicants {
			if users[idx].ID == poster.ID {
				continue
			}
			application := models.JobApplication{
				JobID:       job.ID,
				ApplicantID: users[idx].ID,
				CoverLetter: gofakeit.Paragraph(1, 3, 10, " "),
				Status:      models.ApplicationApplied,
			}
			if err := s.db.Create(&application).Error; err != nil {
				continue
			}
			s.db.Model(&job).UpdateColumn("application_count", gorm.Expr("application_count + 1"))
		}
	}
	return nil
}

func (s *Seeder) seedMessages(users []models.User, count int) error {
	for i := 0; i < count; i++ {
		a := users[rand.Intn(len(users))]
		b := users[rand.Intn(len(users))]
		if a.ID == b.ID {
			continue
		}

		msg := models.Message{
			SenderID:    a.ID,
			RecipientID: b.ID,
			Content:     gofakeit.Sentence(12),
			Type:        models.MessageText,
			CreatedAt:   time.Now().Add(-time.Duration(rand.Intn(7*24)) * time.Hour),
		}
		if rand.Intn(2) == 0 {
			readAt := msg.CreatedAt.Add(time.Duration(rand.Intn(120)) * time.Minute)
			msg.ReadAt = &readAt
		}
		if err := s.db.Create(&msg).Error; err != nil {
			return err
		}
	}
	return nil
}
