// Package dataset 受保护数据集列表（研究员可见）
package dataset

import (
	"context"
	"path"
	"strings"

	"biovault/internal/shared/objstore"
	"biovault/internal/shared/model"
)

// Lister 数据集列表来源，授权闸门之后调用
type Lister interface {
	List(ctx context.Context) ([]model.Dataset, error)
}

// ============================================================================
// MockLister
// ============================================================================

// mockDatasets 演示用静态数据
var mockDatasets = []model.Dataset{
	{ID: "1", Name: "Genomic Data Set A", Owner: "Patient 1"},
	{ID: "2", Name: "Clinical Trial Results B", Owner: "Patient 2"},
	{ID: "3", Name: "Medical Imaging Set C", Owner: "Patient 3"},
}

// MockLister 返回固定的三条数据集
type MockLister struct{}

func (MockLister) List(ctx context.Context) ([]model.Dataset, error) {
	out := make([]model.Dataset, len(mockDatasets))
	copy(out, mockDatasets)
	return out, nil
}

// ============================================================================
// MinIOLister
// ============================================================================

// ObjectLister MinIOLister 依赖的对象存储接口
type ObjectLister interface {
	List(ctx context.Context, prefix string) ([]objstore.Object, error)
}

// MinIOLister 以对象存储中的对象作为数据集
type MinIOLister struct {
	objects ObjectLister
	prefix  string
}

// NewMinIOLister 创建 MinIOLister
func NewMinIOLister(objects ObjectLister, prefix string) *MinIOLister {
	return &MinIOLister{objects: objects, prefix: prefix}
}

func (l *MinIOLister) List(ctx context.Context) ([]model.Dataset, error) {
	objs, err := l.objects.List(ctx, l.prefix)
	if err != nil {
		return nil, err
	}
	out := make([]model.Dataset, 0, len(objs))
	for _, o := range objs {
		out = append(out, model.Dataset{
			ID:    strings.TrimPrefix(o.Key, l.prefix),
			Name:  datasetName(o.Key),
			Owner: o.Owner,
		})
	}
	return out, nil
}

// datasetName 取对象文件名（去扩展名）作为展示名称
func datasetName(key string) string {
	base := path.Base(key)
	return strings.TrimSuffix(base, path.Ext(base))
}
