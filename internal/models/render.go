package models

import (
	"nutriscan/internal/utils"

	"gorm.io/gorm"
)

// DeletedPlaceholder replaces the body of a soft-deleted comment in every view.
const DeletedPlaceholder = "[deleted]"

func (d *Discussion) render() {
	d.ContentHTML = utils.RenderMarkdown(d.Content)
}

func (d *Discussion) AfterFind(tx *gorm.DB) error {
	d.render()
	return nil
}

func (d *Discussion) AfterCreate(tx *gorm.DB) error {
	d.render()
	return nil
}

func (c *Comment) render() {
	if c.IsDeleted {
		c.Content = DeletedPlaceholder
		c.ContentHTML = ""
		return
	}
	c.ContentHTML = utils.RenderMarkdown(c.Content)
}

func (c *Comment) AfterFind(tx *gorm.DB) error {
	c.render()
	return nil
}

func (c *Comment) AfterCreate(tx *gorm.DB) error {
	c.render()
	return nil
}

// All lists every persisted model in dependency order for migrations.
func All() []any {
	return []any{
		&User{},
		&Ingredient{},
		&Product{},
		&Discussion{},
		&Comment{},
		&Vote{},
		&Bookmark{},
		&ModerationFlag{},
		&UserActivity{},
		&ResearchStudy{},
		&NewsArticle{},
		&Notification{},
	}
}
