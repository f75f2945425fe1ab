package migrations

import (
	"time"

	"github.com/go-gormigrate/gormigrate/v2"
	"github.com/gosimple/slug"
	"github.com/mlodi/backend/internal/models"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// SeedEngagementDefinitions seeds the achievement, challenge, and
// milestone catalogs. Codes are slugs of the titles so re-running the
// seed is idempotent and client deep-links stay stable.
func SeedEngagementDefinitions() *gormigrate.Migration {
	return &gormigrate.Migration{
		ID: "000001_seed_engagement_definitions",
		Migrate: func(tx *gorm.DB) error {
			if err := seedAchievements(tx); err != nil {
				return err
			}
			if err := seedChallenges(tx); err != nil {
				return err
			}
			return seedMilestones(tx)
		},
		Rollback: func(tx *gorm.DB) error {
			if err := tx.Exec("DELETE FROM achievement_criteria").Error; err != nil {
				return err
			}
			if err := tx.Exec("DELETE FROM achievements").Error; err != nil {
				return err
			}
			if err := tx.Exec("DELETE FROM challenges").Error; err != nil {
				return err
			}
			return tx.Exec("DELETE FROM milestones").Error
		},
	}
}

type achievementSeed struct {
	title       string
	description string
	icon        string
	category    models.AchievementCategory
	rarity      models.AchievementRarity
	points      int64
	criteria    []models.AchievementCriterion
}

func seedAchievements(tx *gorm.DB) error {
	seeds := []achievementSeed{
		{
			title: "First Listen", description: "Listen to your first full minute of music",
			icon: "🎵", category: models.AchievementCategoryListening, rarity: models.RarityCommon, points: 10,
			criteria: []models.AchievementCriterion{
				{ActivityType: models.ActivityListeningTime, MinValue: 60000},
			},
		},
		{
			title: "Marathon Listener", description: "Listen for an hour in one stretch",
			icon: "🎧", category: models.AchievementCategoryListening, rarity: models.RarityRare, points: 100,
			criteria: []models.AchievementCriterion{
				{ActivityType: models.ActivityListeningTime, MinValue: 3600000},
			},
		},
		{
			title: "Tastemaker", description: "Create a playlist for your community",
			icon: "📝", category: models.AchievementCategoryCreative, rarity: models.RarityCommon, points: 25,
			criteria: []models.AchievementCriterion{
				{ActivityType: models.ActivityPlaylistCreated, MinValue: 1},
			},
		},
		{
			title: "Show Up", description: "Attend a live concert",
			icon: "🎤", category: models.AchievementCategoryEngagement, rarity: models.RarityRare, points: 200,
			criteria: []models.AchievementCriterion{
				{ActivityType: models.ActivityConcertAttended, MinValue: 1},
			},
		},
		{
			title: "Merch Collector", description: "Buy merchandise from the artist",
			icon: "👕", category: models.AchievementCategoryLoyalty, rarity: models.RarityCommon, points: 75,
			criteria: []models.AchievementCriterion{
				{ActivityType: models.ActivityMerchPurchased, MinValue: 1},
			},
		},
		{
			title: "Recruiter", description: "Bring a friend into the fanbase",
			icon: "🤝", category: models.AchievementCategorySocial, rarity: models.RarityCommon, points: 100,
			criteria: []models.AchievementCriterion{
				{ActivityType: models.ActivityFriendReferred, MinValue: 1},
			},
		},
		{
			title: "Silver Status", description: "Reach the Silver fan tier",
			icon: "🥈", category: models.AchievementCategoryLoyalty, rarity: models.RarityCommon, points: 50,
			criteria: []models.AchievementCriterion{
				{ActivityType: models.ActivityFanTierChanged, MinValue: models.TierSilver.Ordinal()},
			},
		},
		{
			title: "Gold Status", description: "Reach the Gold fan tier",
			icon: "🥇", category: models.AchievementCategoryLoyalty, rarity: models.RarityEpic, points: 150,
			criteria: []models.AchievementCriterion{
				{ActivityType: models.ActivityFanTierChanged, MinValue: models.TierGold.Ordinal()},
			},
		},
		{
			title: "Platinum Devotion", description: "Reach the Platinum fan tier",
			icon: "💎", category: models.AchievementCategoryLoyalty, rarity: models.RarityLegendary, points: 1000,
			criteria: []models.AchievementCriterion{
				{ActivityType: models.ActivityFanTierChanged, MinValue: models.TierPlatinum.Ordinal()},
			},
		},
		{
			// Satisfiable through several dimensions over time: criteria
			// are evaluated independently, any one unlocks it.
			title: "Superfan", description: "Go all in: a long session, a concert, or ten friends referred",
			icon: "⭐", category: models.AchievementCategoryEngagement, rarity: models.RarityLegendary, points: 500,
			criteria: []models.AchievementCriterion{
				{ActivityType: models.ActivityListeningTime, MinValue: 7200000},
				{ActivityType: models.ActivityConcertAttended, MinValue: 5},
				{ActivityType: models.ActivityFriendReferred, MinValue: 10},
			},
		},
	}

	for _, s := range seeds {
		a := models.Achievement{
			Code:          slug.Make(s.title),
			Title:         s.title,
			Description:   s.description,
			Icon:          s.icon,
			Category:      s.category,
			Rarity:        s.rarity,
			PointsAwarded: s.points,
			Criteria:      s.criteria,
			IsActive:      true,
		}
		if err := tx.Clauses(clause.OnConflict{DoNothing: true}).Create(&a).Error; err != nil {
			return err
		}
	}
	return nil
}

func seedChallenges(tx *gorm.DB) error {
	now := time.Now()
	weekEnd := now.AddDate(0, 0, 7)
	seasonEnd := now.AddDate(0, 3, 0)

	seeds := []models.Challenge{
		{
			Title: "Daily Spin", Description: "Listen for 30 minutes today", Icon: "☀️",
			Type: models.ChallengeDaily, TargetValue: 30, PointsReward: 50,
			StartDate: now, EndDate: nil, IsActive: true,
		},
		{
			Title: "Weekly Deep Dive", Description: "Listen for 5 hours this week", Icon: "🌊",
			Type: models.ChallengeWeekly, TargetValue: 300, PointsReward: 250,
			BadgeReward: "deep-diver", StartDate: now, EndDate: &weekEnd, IsActive: true,
		},
		{
			Title: "Community Voice", Description: "Make 20 community interactions", Icon: "💬",
			Type: models.ChallengeWeekly, TargetValue: 20, PointsReward: 150,
			StartDate: now, EndDate: &weekEnd, IsActive: true,
		},
		{
			Title: "Season Opener", Description: "Attend a show and grab merch this season", Icon: "🎪",
			Type: models.ChallengeSeasonal, TargetValue: 2, PointsReward: 500,
			BadgeReward: "season-opener", StartDate: now, EndDate: &seasonEnd, IsActive: true,
		},
	}

	for i := range seeds {
		seeds[i].Code = slug.Make(seeds[i].Title)
		if err := tx.Clauses(clause.OnConflict{DoNothing: true}).Create(&seeds[i]).Error; err != nil {
			return err
		}
	}
	return nil
}

func seedMilestones(tx *gorm.DB) error {
	seeds := []models.Milestone{
		{
			Title: "Getting Started", Description: "Earn your first 100 points", Icon: "🌱",
			RequiredPoints: 100, Reward: "Exclusive wallpaper pack", PointsAwarded: 25, IsActive: true,
		},
		{
			Title: "True Fan", Description: "Earn 1,000 lifetime points", Icon: "🔥",
			RequiredPoints: 1000, Reward: "Early access to one unreleased track", PointsAwarded: 100, IsActive: true,
		},
		{
			Title: "Inner Circle", Description: "Earn 5,000 lifetime points", Icon: "🎯",
			RequiredPoints: 5000, Reward: "10% merch discount code", PointsAwarded: 250, IsActive: true,
		},
		{
			Title: "Legend", Description: "Earn 15,000 lifetime points", Icon: "🏆",
			RequiredPoints: 15000, Reward: "Signed poster", PointsAwarded: 500, IsActive: true,
		},
		{
			Title: "Hall of Fame", Description: "Earn 40,000 lifetime points", Icon: "👑",
			RequiredPoints: 40000, Reward: "Meet and greet pass", PointsAwarded: 1500, IsActive: true,
		},
	}

	for i := range seeds {
		seeds[i].Code = slug.Make(seeds[i].Title)
		if err := tx.Clauses(clause.OnConflict{DoNothing: true}).Create(&seeds[i]).Error; err != nil {
			return err
		}
	}
	return nil
}
