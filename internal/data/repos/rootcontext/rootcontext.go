package rootcontext

import (
	"gorm.io/gorm"

	"github.com/yungbote/analytics-database/internal/domain/rootcontext"
	"github.com/yungbote/analytics-database/internal/platform/dbctx"
	"github.com/yungbote/analytics-database/internal/platform/logger"
)

// RootContextRepo serves both courses and books. Ids come from the shared
// ContextId sequence, never from the kind tables.
type RootContextRepo interface {
	NextID(dbc dbctx.Context) (int64, error)
	CourseByExternalID(dbc dbctx.Context, externalID string) (*rootcontext.Course, error)
	BookByExternalID(dbc dbctx.Context, externalID string) (*rootcontext.Book, error)
	CourseByID(dbc dbctx.Context, contextID int64) (*rootcontext.Course, error)
	// ChildCourseIDs lists the sections recorded under a parent course.
	ChildCourseIDs(dbc dbctx.Context, parentID int64) ([]int64, error)
	BookByID(dbc dbctx.Context, contextID int64) (*rootcontext.Book, error)
	CreateCourse(dbc dbctx.Context, course *rootcontext.Course) error
	CreateBook(dbc dbctx.Context, book *rootcontext.Book) error
	UpdateCourse(dbc dbctx.Context, contextID int64, updates map[string]any) error
	UpdateBook(dbc dbctx.Context, contextID int64, updates map[string]any) error
	ClearExternalID(dbc dbctx.Context, externalID string) (int64, error)
}

type rootContextRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewRootContextRepo(db *gorm.DB, baseLog *logger.Logger) RootContextRepo {
	return &rootContextRepo{db: db, log: baseLog.With("repo", "RootContextRepo")}
}

func (r *rootContextRepo) tx(dbc dbctx.Context) *gorm.DB {
	transaction := dbc.Tx
	if transaction == nil {
		transaction = r.db
	}
	return transaction.WithContext(dbc.Context())
}

func (r *rootContextRepo) NextID(dbc dbctx.Context) (int64, error) {
	row := rootcontext.ContextID{}
	if err := r.tx(dbc).Create(&row).Error; err != nil {
		return 0, err
	}
	return row.ContextID, nil
}

func (r *rootContextRepo) CourseByExternalID(dbc dbctx.Context, externalID string) (*rootcontext.Course, error) {
	return first[rootcontext.Course](r.tx(dbc), "context_ds_id = ?", externalID)
}

func (r *rootContextRepo) BookByExternalID(dbc dbctx.Context, externalID string) (*rootcontext.Book, error) {
	return first[rootcontext.Book](r.tx(dbc), "context_ds_id = ?", externalID)
}

func (r *rootContextRepo) CourseByID(dbc dbctx.Context, contextID int64) (*rootcontext.Course, error) {
	return first[rootcontext.Course](r.tx(dbc), "context_id = ?", contextID)
}

func (r *rootContextRepo) ChildCourseIDs(dbc dbctx.Context, parentID int64) ([]int64, error) {
	out := []int64{}
	if err := r.tx(dbc).
		Model(&rootcontext.Course{}).
		Where("parent_context_id = ?", parentID).
		Order("context_id ASC").
		Pluck("context_id", &out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

func (r *rootContextRepo) BookByID(dbc dbctx.Context, contextID int64) (*rootcontext.Book, error) {
	return first[rootcontext.Book](r.tx(dbc), "context_id = ?", contextID)
}

func (r *rootContextRepo) CreateCourse(dbc dbctx.Context, course *rootcontext.Course) error {
	return r.tx(dbc).Create(course).Error
}

func (r *rootContextRepo) CreateBook(dbc dbctx.Context, book *rootcontext.Book) error {
	return r.tx(dbc).Create(book).Error
}

func (r *rootContextRepo) UpdateCourse(dbc dbctx.Context, contextID int64, updates map[string]any) error {
	if len(updates) == 0 {
		return nil
	}
	return r.tx(dbc).Model(&rootcontext.Course{}).Where("context_id = ?", contextID).Updates(updates).Error
}

func (r *rootContextRepo) UpdateBook(dbc dbctx.Context, contextID int64, updates map[string]any) error {
	if len(updates) == 0 {
		return nil
	}
	return r.tx(dbc).Model(&rootcontext.Book{}).Where("context_id = ?", contextID).Updates(updates).Error
}

// ClearExternalID releases the external id on whichever kind holds it.
func (r *rootContextRepo) ClearExternalID(dbc dbctx.Context, externalID string) (int64, error) {
	var total int64
	for _, model := range []any{&rootcontext.Course{}, &rootcontext.Book{}} {
		res := r.tx(dbc).Model(model).Where("context_ds_id = ?", externalID).Update("context_ds_id", nil)
		if res.Error != nil {
			return total, res.Error
		}
		total += res.RowsAffected
	}
	return total, nil
}

func first[T any](q *gorm.DB, cond string, arg any) (*T, error) {
	var out T
	res := q.Where(cond, arg).Limit(1).Find(&out)
	if res.Error != nil {
		return nil, res.Error
	}
	if res.RowsAffected == 0 {
		return nil, nil
	}
	return &out, nil
}
