package models

import "time"

// Course is an external lecture collected by the course scraping batch job.
type Course struct {
	ID            int64     `json:"id" db:"id" gorm:"primaryKey"`
	ExternalID    string    `json:"externalId" db:"external_id" gorm:"uniqueIndex;not null"` // catalog identifier, upsert key
	Title         string    `json:"title" db:"title" gorm:"not null"`
	URL           string    `json:"url" db:"url"`
	Instructor    string    `json:"instructor" db:"instructor"`
	ImageURL      string    `json:"imageUrl" db:"image_url"`
	Price         int64     `json:"price" db:"price"`
	JobCategoryID *int64    `json:"jobCategoryId,omitempty" db:"job_category_id"`
	ScrapedAt     time.Time `json:"scrapedAt" db:"scraped_at"`
}
