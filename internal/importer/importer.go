// Package importer bulk-loads the reference CSV dataset into the database.
package importer

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"yamdb/internal/microservices/http-api/models"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// userNamespace derives stable user ids from the numeric ids in users.csv,
// so reviews and comments resolve their authors and re-imports are idempotent.
var userNamespace = uuid.MustParse("6f1c7f4e-3b0e-4c1e-9a57-6a1f0c2d9b11")

// Summary counts the rows written per file.
type Summary struct {
	Categories  int
	Genres      int
	Titles      int
	GenreTitles int
	Users       int
	Reviews     int
	Comments    int
}

type Importer struct {
	db  *gorm.DB
	dir string
}

func New(db *gorm.DB, dir string) *Importer {
	return &Importer{db: db, dir: dir}
}

// UserID maps a users.csv id to the stored user id.
func UserID(csvID string) string {
	return uuid.NewSHA1(userNamespace, []byte(csvID)).String()
}

// Run loads every file in dependency order inside one transaction.
// Existing rows with the same id are overwritten.
func (im *Importer) Run(ctx context.Context) (Summary, error) {
	var sum Summary
	err := im.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		steps := []struct {
			file  string
			count *int
			load  func(*gorm.DB, record) error
		}{
			{"category.csv", &sum.Categories, loadCategory},
			{"genre.csv", &sum.Genres, loadGenre},
			{"titles.csv", &sum.Titles, loadTitle},
			{"genre_title.csv", &sum.GenreTitles, loadGenreTitle},
			{"users.csv", &sum.Users, loadUser},
			{"review.csv", &sum.Reviews, loadReview},
			{"comments.csv", &sum.Comments, loadComment},
		}

		for _, step := range steps {
			rows, err := readCSV(filepath.Join(im.dir, step.file))
			if err != nil {
				return err
			}
			for i, row := range rows {
				if err := step.load(tx, row); err != nil {
					// header is line 1
					return fmt.Errorf("%s line %d: %w", step.file, i+2, err)
				}
			}
			*step.count = len(rows)
			zap.L().Info("Imported CSV file", zap.String("file", step.file), zap.Int("rows", len(rows)))
		}
		return resetSequences(tx)
	})
	if err != nil {
		return Summary{}, err
	}
	return sum, nil
}

type record map[string]string

func (r record) int64(col string) (int64, error) {
	v, err := strconv.ParseInt(strings.TrimSpace(r[col]), 10, 64)
	if err != nil {
		return 0, fmt.Errorf("column %s: %w", col, err)
	}
	return v, nil
}

func (r record) int(col string) (int, error) {
	v, err := r.int64(col)
	return int(v), err
}

func (r record) time(col string) (time.Time, error) {
	v := strings.TrimSpace(r[col])
	if v == "" {
		return time.Now().UTC(), nil
	}
	t, err := time.Parse(time.RFC3339Nano, v)
	if err != nil {
		return time.Time{}, fmt.Errorf("column %s: %w", col, err)
	}
	return t, nil
}

func readCSV(path string) ([]record, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open file: %w", err)
	}
	defer f.Close()

	r := csv.NewReader(f)
	header, err := r.Read()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return nil, nil
		}
		return nil, fmt.Errorf("read header of %s: %w", filepath.Base(path), err)
	}
	// Excel exports start with a byte order mark
	header[0] = strings.TrimPrefix(header[0], "\ufeff")

	var rows []record
	for {
		line, err := r.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read %s: %w", filepath.Base(path), err)
		}
		row := make(record, len(header))
		for i, col := range header {
			if i < len(line) {
				row[col] = line[i]
			}
		}
		rows = append(rows, row)
	}
	return rows, nil
}

func upsert(tx *gorm.DB, value any) error {
	return tx.Clauses(clause.OnConflict{UpdateAll: true}).Create(value).Error
}

func loadCategory(tx *gorm.DB, row record) error {
	id, err := row.int64("id")
	if err != nil {
		return err
	}
	return upsert(tx, &models.Category{ID: id, Name: row["name"], Slug: row["slug"]})
}

func loadGenre(tx *gorm.DB, row record) error {
	id, err := row.int64("id")
	if err != nil {
		return err
	}
	return upsert(tx, &models.Genre{ID: id, Name: row["name"], Slug: row["slug"]})
}

func loadTitle(tx *gorm.DB, row record) error {
	id, err := row.int64("id")
	if err != nil {
		return err
	}
	year, err := row.int("year")
	if err != nil {
		return err
	}
	title := &models.Title{ID: id, Name: row["name"], Year: year, Description: row["description"]}
	if strings.TrimSpace(row["category"]) != "" {
		categoryID, err := row.int64("category")
		if err != nil {
			return err
		}
		title.CategoryID = &categoryID
	}
	return upsert(tx, title)
}

func loadGenreTitle(tx *gorm.DB, row record) error {
	titleID, err := row.int64("title_id")
	if err != nil {
		return err
	}
	genreID, err := row.int64("genre_id")
	if err != nil {
		return err
	}
	return tx.Table("genre_title").
		Clauses(clause.OnConflict{DoNothing: true}).
		Create(map[string]any{"title_id": titleID, "genre_id": genreID}).Error
}

func loadUser(tx *gorm.DB, row record) error {
	role := models.Role(row["role"])
	if role == "" {
		role = models.RoleUser
	}
	if !role.IsValid() {
		return fmt.Errorf("unknown role %q", role)
	}
	return upsert(tx, &models.User{
		ID:        UserID(strings.TrimSpace(row["id"])),
		Username:  row["username"],
		Email:     row["email"],
		Role:      role,
		Bio:       row["bio"],
		FirstName: row["first_name"],
		LastName:  row["last_name"],
	})
}

func loadReview(tx *gorm.DB, row record) error {
	id, err := row.int64("id")
	if err != nil {
		return err
	}
	titleID, err := row.int64("title_id")
	if err != nil {
		return err
	}
	score, err := row.int("score")
	if err != nil {
		return err
	}
	if score < models.MinScore || score > models.MaxScore {
		return fmt.Errorf("score %d out of range", score)
	}
	pubDate, err := row.time("pub_date")
	if err != nil {
		return err
	}
	return upsert(tx, &models.Review{
		ID:       id,
		TitleID:  titleID,
		AuthorID: UserID(strings.TrimSpace(row["author"])),
		Text:     row["text"],
		Score:    score,
		PubDate:  pubDate,
	})
}

func loadComment(tx *gorm.DB, row record) error {
	id, err := row.int64("id")
	if err != nil {
		return err
	}
	reviewID, err := row.int64("review_id")
	if err != nil {
		return err
	}
	pubDate, err := row.time("pub_date")
	if err != nil {
		return err
	}
	return upsert(tx, &models.Comment{
		ID:       id,
		ReviewID: reviewID,
		AuthorID: UserID(strings.TrimSpace(row["author"])),
		Text:     row["text"],
		PubDate:  pubDate,
	})
}

// resetSequences moves postgres id sequences past the imported ids.
// SQLite and MySQL derive the next id from the table itself.
func resetSequences(tx *gorm.DB) error {
	if tx.Dialector.Name() != "postgres" {
		return nil
	}
	for _, table := range []string{"categories", "genres", "titles", "reviews", "comments"} {
		stmt := fmt.Sprintf(
			"SELECT setval(pg_get_serial_sequence('%s', 'id'), COALESCE(MAX(id), 0) + 1, false) FROM %s",
			table, table)
		if err := tx.Exec(stmt).Error; err != nil {
			return fmt.Errorf("reset sequence of %s: %w", table, err)
		}
	}
	return nil
}
