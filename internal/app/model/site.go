package model

// Site is one deployment sharing the bookmark tables. Every list query is scoped to a site.
type Site struct {
	ID     uint   `gorm:"primaryKey"`
	Domain string `gorm:"size:100;not null;uniqueIndex"`
	Name   string `gorm:"size:50;not null"`
	Slug   string `gorm:"size:50;not null"`
}
