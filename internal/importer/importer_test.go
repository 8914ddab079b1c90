package importer

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"yamdb/database"
	"yamdb/internal/microservices/http-api/models"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

var dataset = map[string]string{
	"category.csv":    "id,name,slug\n1,Фильм,movie\n2,Книга,book\n",
	"genre.csv":       "id,name,slug\n1,Драма,drama\n2,Комедия,comedy\n",
	"titles.csv":      "id,name,year,category\n1,Побег из Шоушенка,1994,1\n2,Крестный отец,1972,1\n",
	"genre_title.csv": "id,title_id,genre_id\n1,1,1\n2,2,1\n3,2,2\n",
	"users.csv":       "id,username,email,role,bio,first_name,last_name\n100,bingobongo,bingobongo@yamdb.fake,user,,,\n101,capt_obvious,capt_obvious@yamdb.fake,admin,,,\n",
	"review.csv":      "id,title_id,text,author,score,pub_date\n1,1,Ещё шесть минут,100,10,2019-09-24T21:08:21.567Z\n2,1,Приятно смотреть,101,6,2019-09-24T21:08:21.567Z\n",
	"comments.csv":    "id,review_id,text,author,pub_date\n1,1,Критик фигов,101,2019-09-24T21:08:21.567Z\n",
}

func writeDataset(t *testing.T, override map[string]string) string {
	t.Helper()
	dir := t.TempDir()
	for name, content := range dataset {
		if v, ok := override[name]; ok {
			content = v
		}
		require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(content), 0o600))
	}
	return dir
}

func openDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := database.OpenInMemory(uuid.NewString())
	require.NoError(t, err)
	t.Cleanup(func() {
		if sqlDB, err := db.DB(); err == nil {
			sqlDB.Close()
		}
	})
	return db
}

func count(t *testing.T, db *gorm.DB, model any) int64 {
	t.Helper()
	var n int64
	require.NoError(t, db.Model(model).Count(&n).Error)
	return n
}

func TestImporter_Run(t *testing.T) {
	db := openDB(t)
	ctx := context.Background()

	sum, err := New(db, writeDataset(t, nil)).Run(ctx)
	require.NoError(t, err)
	assert.Equal(t, Summary{Categories: 2, Genres: 2, Titles: 2, GenreTitles: 3, Users: 2, Reviews: 2, Comments: 1}, sum)

	var title models.Title
	require.NoError(t, db.Preload("Category").Preload("Genres").First(&title, 2).Error)
	assert.Equal(t, "Крестный отец", title.Name)
	require.NotNil(t, title.Category)
	assert.Equal(t, "movie", title.Category.Slug)
	assert.Len(t, title.Genres, 2)

	var admin models.User
	require.NoError(t, db.First(&admin, "username = ?", "capt_obvious").Error)
	assert.Equal(t, UserID("101"), admin.ID)
	assert.Equal(t, models.RoleAdmin, admin.Role)

	var comment models.Comment
	require.NoError(t, db.First(&comment, 1).Error)
	assert.Equal(t, admin.ID, comment.AuthorID)
	assert.Equal(t, 2019, comment.PubDate.Year())

	t.Run("IsIdempotent", func(t *testing.T) {
		_, err := New(db, writeDataset(t, nil)).Run(ctx)
		require.NoError(t, err)
		assert.EqualValues(t, 2, count(t, db, &models.Title{}))
		assert.EqualValues(t, 2, count(t, db, &models.User{}))
		assert.EqualValues(t, 2, count(t, db, &models.Review{}))
	})

	t.Run("NewRowsGetFreshIDs", func(t *testing.T) {
		c := &models.Category{Name: "Музыка", Slug: "music"}
		require.NoError(t, db.Create(c).Error)
		assert.Greater(t, c.ID, int64(2))
	})
}

func TestImporter_BadRowRollsBack(t *testing.T) {
	db := openDB(t)
	dir := writeDataset(t, map[string]string{
		"review.csv": "id,title_id,text,author,score,pub_date\n1,1,Слишком,100,11,2019-09-24T21:08:21.567Z\n",
	})

	_, err := New(db, dir).Run(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "review.csv line 2")

	assert.Zero(t, count(t, db, &models.Category{}))
	assert.Zero(t, count(t, db, &models.User{}))
}

func TestImporter_MissingFile(t *testing.T) {
	db := openDB(t)
	dir := writeDataset(t, nil)
	require.NoError(t, os.Remove(filepath.Join(dir, "comments.csv")))

	_, err := New(db, dir).Run(context.Background())
	require.Error(t, err)
	assert.Zero(t, count(t, db, &models.Title{}))
}

func TestReadCSV_StripsByteOrderMark(t *testing.T) {
	path := filepath.Join(t.TempDir(), "genre.csv")
	require.NoError(t, os.WriteFile(path, []byte("\ufeffid,name,slug\n1,Drama,drama\n"), 0o600))

	rows, err := readCSV(path)
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, "1", rows[0]["id"])
}
