package dataset

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"biovault/internal/shared/objstore"
	"biovault/internal/shared/model"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeObjects struct {
	objects []objstore.Object
	err     error
	prefix  string
}

func (f *fakeObjects) List(ctx context.Context, prefix string) ([]objstore.Object, error) {
	f.prefix = prefix
	return f.objects, f.err
}

type failingLister struct{}

func (failingLister) List(ctx context.Context) ([]model.Dataset, error) {
	return nil, errors.New("bucket unreachable")
}

func TestMockLister_ThreeItems(t *testing.T) {
	items, err := MockLister{}.List(context.Background())
	require.NoError(t, err)
	require.Len(t, items, 3)
	for _, it := range items {
		assert.NotEmpty(t, it.ID)
		assert.NotEmpty(t, it.Name)
		assert.NotEmpty(t, it.Owner)
	}

	// 返回副本，调用方修改不影响后续结果
	items[0].Name = "changed"
	again, _ := MockLister{}.List(context.Background())
	assert.NotEqual(t, "changed", again[0].Name)
}

func TestMinIOLister(t *testing.T) {
	objs := &fakeObjects{objects: []objstore.Object{
		{Key: "datasets/genomic-a.csv", Owner: "Lab A"},
		{Key: "datasets/imaging/scan-c.dcm", Owner: ""},
	}}
	l := NewMinIOLister(objs, "datasets/")

	items, err := l.List(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "datasets/", objs.prefix)
	assert.Equal(t, []model.Dataset{
		{ID: "genomic-a.csv", Name: "genomic-a", Owner: "Lab A"},
		{ID: "imaging/scan-c.dcm", Name: "scan-c", Owner: ""},
	}, items)

	objs.err = errors.New("boom")
	_, err = l.List(context.Background())
	assert.Error(t, err)
}

func TestHandler_List(t *testing.T) {
	w := httptest.NewRecorder()
	NewHandler(MockLister{}).List(w, httptest.NewRequest(http.MethodGet, "/api/users/protected-data", nil))

	assert.Equal(t, http.StatusOK, w.Code)
	var items []model.Dataset
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &items))
	assert.Len(t, items, 3)
}

func TestHandler_EmptyIsArray(t *testing.T) {
	w := httptest.NewRecorder()
	NewHandler(NewMinIOLister(&fakeObjects{}, "")).List(w, httptest.NewRequest(http.MethodGet, "/", nil))

	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `[]`, w.Body.String())
}

func TestHandler_ListerFailure(t *testing.T) {
	w := httptest.NewRecorder()
	NewHandler(failingLister{}).List(w, httptest.NewRequest(http.MethodGet, "/", nil))

	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.JSONEq(t, `{"message":"Server error"}`, w.Body.String())
}
