package model

// Dataset 受保护数据集（研究员可见的列表项）
type Dataset struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Owner string `json:"owner"`
}
