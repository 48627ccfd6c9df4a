package brands

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/yungbote/brandprompt-backend/internal/data/db"
	"github.com/yungbote/brandprompt-backend/internal/domain/brand"
	"github.com/yungbote/brandprompt-backend/internal/pkg/dbctx"
	pkgerrors "github.com/yungbote/brandprompt-backend/internal/pkg/errors"
	"github.com/yungbote/brandprompt-backend/internal/pkg/logger"
)

type BrandRecordRepo interface {
	Create(dbc dbctx.Context, rec *brand.BrandRecord) (*brand.BrandRecord, error)
	GetByID(dbc dbctx.Context, id string) (*brand.BrandRecord, error)
	ReplacePromptData(dbc dbctx.Context, id string, ps brand.PromptSet) (*brand.BrandRecord, error)
	List(dbc dbctx.Context, filter brand.RecordFilter, offset, limit int) ([]*brand.BrandRecord, int64, error)
	Stats(dbc dbctx.Context, windows brand.StatsWindows) (brand.RecordStats, error)
}

type brandRecordRepo struct {
	conn db.Conn
	log  *logger.Logger
}

func NewBrandRecordRepo(conn db.Conn, baseLog *logger.Logger) BrandRecordRepo {
	repoLog := baseLog.With("repo", "BrandRecordRepo")
	return &brandRecordRepo{conn: conn, log: repoLog}
}

func (r *brandRecordRepo) transaction(dbc dbctx.Context) (*gorm.DB, error) {
	if dbc.Tx != nil {
		return dbc.Tx.WithContext(dbc.Ctx), nil
	}
	gdb, err := r.conn.DB(dbc.Ctx)
	if err != nil {
		return nil, err
	}
	return gdb.WithContext(dbc.Ctx), nil
}

func now() time.Time { return time.Now().UTC().Truncate(time.Microsecond) }

func checkID(id string) error {
	if !brand.ValidID(id) {
		return fmt.Errorf("%w: %q", pkgerrors.ErrInvalidID, id)
	}
	return nil
}

func (r *brandRecordRepo) Create(dbc dbctx.Context, rec *brand.BrandRecord) (*brand.BrandRecord, error) {
	if rec == nil {
		return nil, fmt.Errorf("%w: nil record", pkgerrors.ErrInvalidArgument)
	}
	transaction, err := r.transaction(dbc)
	if err != nil {
		return nil, err
	}
	ts := now()
	rec.CreatedAt, rec.UpdatedAt = ts, ts
	if err := transaction.Create(rec).Error; err != nil {
		return nil, err
	}
	return rec, nil
}

func (r *brandRecordRepo) GetByID(dbc dbctx.Context, id string) (*brand.BrandRecord, error) {
	if err := checkID(id); err != nil {
		return nil, err
	}
	transaction, err := r.transaction(dbc)
	if err != nil {
		return nil, err
	}
	var rec brand.BrandRecord
	if err := transaction.Where("id = ?", id).First(&rec).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("brand record %s: %w", id, pkgerrors.ErrNotFound)
		}
		return nil, err
	}
	return &rec, nil
}

// ReplacePromptData swaps the stored snapshot for [ps] and bumps updated_at
// in a single UPDATE, then reads the record back.
func (r *brandRecordRepo) ReplacePromptData(dbc dbctx.Context, id string, ps brand.PromptSet) (*brand.BrandRecord, error) {
	if err := checkID(id); err != nil {
		return nil, err
	}
	transaction, err := r.transaction(dbc)
	if err != nil {
		return nil, err
	}

	var out brand.BrandRecord
	err = transaction.Transaction(func(txx *gorm.DB) error {
		res := txx.Model(&brand.BrandRecord{}).
			Where("id = ?", id).
			Updates(map[string]interface{}{
				"prompt_data": datatypes.JSONSlice[brand.PromptSet]{ps},
				"updated_at":  now(),
			})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return fmt.Errorf("brand record %s: %w", id, pkgerrors.ErrNotFound)
		}
		return txx.Where("id = ?", id).First(&out).Error
	})
	if err != nil {
		return nil, err
	}
	return &out, nil
}

// List returns one page of records matching filter, newest first, and the
// total number of matches.
func (r *brandRecordRepo) List(dbc dbctx.Context, filter brand.RecordFilter, offset, limit int) ([]*brand.BrandRecord, int64, error) {
	transaction, err := r.transaction(dbc)
	if err != nil {
		return nil, 0, err
	}
	scoped := applyFilter(transaction.Model(&brand.BrandRecord{}), filter.Normalize())

	var total int64
	if err := scoped.Session(&gorm.Session{}).Count(&total).Error; err != nil {
		return nil, 0, err
	}
	results := []*brand.BrandRecord{}
	if err := scoped.Session(&gorm.Session{}).
		Order("created_at DESC").
		Order("id").
		Offset(offset).
		Limit(limit).
		Find(&results).Error; err != nil {
		return nil, 0, err
	}
	return results, total, nil
}

func (r *brandRecordRepo) Stats(dbc dbctx.Context, windows brand.StatsWindows) (brand.RecordStats, error) {
	transaction, err := r.transaction(dbc)
	if err != nil {
		return brand.RecordStats{}, err
	}
	var out brand.RecordStats
	counts := []struct {
		since time.Time
		dst   *int64
	}{
		{dst: &out.Total},
		{since: windows.Day, dst: &out.Today},
		{since: windows.Week, dst: &out.ThisWeek},
		{since: windows.Month, dst: &out.ThisMonth},
	}
	for _, c := range counts {
		q := transaction.Model(&brand.BrandRecord{})
		if !c.since.IsZero() {
			q = q.Where("created_at >= ?", c.since.UTC())
		}
		if err := q.Count(c.dst).Error; err != nil {
			return brand.RecordStats{}, err
		}
	}
	return out, nil
}

func applyFilter(q *gorm.DB, f brand.RecordFilter) *gorm.DB {
	if f.Query != "" {
		pattern := likePattern(f.Query)
		q = q.Where("(LOWER(brand_name) LIKE ? ESCAPE '!' OR LOWER(url) LIKE ? ESCAPE '!')", pattern, pattern)
	}
	if f.BrandName != "" {
		q = q.Where("LOWER(brand_name) LIKE ? ESCAPE '!'", likePattern(f.BrandName))
	}
	if f.URL != "" {
		q = q.Where("url = ?", f.URL)
	}
	return q
}

var likeEscaper = strings.NewReplacer("!", "!!", "%", "!%", "_", "!_")

// likePattern matches s literally as a lowercase substring.
func likePattern(s string) string {
	return "%" + likeEscaper.Replace(strings.ToLower(s)) + "%"
}
