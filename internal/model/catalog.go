package model

// Brand 品牌（只读引用，表单会话内只拉取一次）
type Brand struct {
	BaseModel
	Name string `gorm:"size:128;uniqueIndex;not null;comment:品牌名称" json:"name"`
}

func (*Brand) TableName() string {
	return "brands"
}

// Category 商品分类
type Category struct {
	BaseModel
	Name string `gorm:"size:128;uniqueIndex;not null;comment:分类名称" json:"name"`
}

func (*Category) TableName() string {
	return "categories"
}

// CatalogRef 表单中使用的 {id, name} 引用
type CatalogRef struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}
