package database

import (
	"context"

	"clinicAgent/internal/llm"
	"clinicAgent/internal/sanitizer"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// Repository хранит задачи, итоги и обмены. Тексты ошибок и обменов
// проходят через sanitizer перед записью.
type Repository struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// SaveJob создает задачу или обновляет ее поля при повторном сохранении.
func (r *Repository) SaveJob(ctx context.Context, j *Job) error {
	return r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "id"}},
			DoUpdates: clause.AssignmentColumns([]string{"status", "error", "total_completed", "total_errors", "updated_at"}),
		}).
		Create(j).Error
}

func (r *Repository) GetJob(ctx context.Context, id string) (*Job, error) {
	var j Job
	if err := r.db.WithContext(ctx).First(&j, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &j, nil
}

func (r *Repository) ListJobs(ctx context.Context, limit, offset int) ([]Job, error) {
	var jobs []Job
	if err := r.db.WithContext(ctx).Order("created_at DESC").Limit(limit).Offset(offset).Find(&jobs).Error; err != nil {
		return nil, err
	}
	return jobs, nil
}

// FinishJob сохраняет итоговый статус задачи и счетчики обработанных сайтов.
func (r *Repository) FinishJob(ctx context.Context, id, status, errMsg string, completed, failed int) error {
	return r.db.WithContext(ctx).Model(&Job{}).
		Where("id = ?", id).
		Updates(map[string]any{
			"status":          status,
			"error":           sanitizer.Sanitize(errMsg),
			"total_completed": completed,
			"total_errors":    failed,
		}).Error
}

func (r *Repository) AddSiteResult(ctx context.Context, res *SiteResult) error {
	res.Error = sanitizer.Sanitize(res.Error)
	return r.db.WithContext(ctx).Create(res).Error
}

func (r *Repository) ListSiteResults(ctx context.Context, jobID string) ([]SiteResult, error) {
	var out []SiteResult
	if err := r.db.WithContext(ctx).Where("job_id = ?", jobID).Order("id").Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

func (r *Repository) AddChatExchange(ctx context.Context, ex *ChatExchange) error {
	ex.Prompt = sanitizer.Sanitize(ex.Prompt)
	ex.Reply = sanitizer.Sanitize(ex.Reply)
	return r.db.WithContext(ctx).Create(ex).Error
}

// RecordExchange сохраняет обмен с ассистентом; Repository реализует llm.Recorder.
func (r *Repository) RecordExchange(ctx context.Context, req llm.Request, ans llm.Answer) error {
	ex := &ChatExchange{
		Site:       req.Site,
		Kind:       string(req.Kind),
		Backend:    ans.Backend,
		Model:      ans.Model,
		Prompt:     req.Prompt,
		Reply:      ans.Text,
		TokensUsed: ans.TokensUsed,
	}
	if req.JobID != "" {
		id := req.JobID
		ex.JobID = &id
	}
	return r.AddChatExchange(ctx, ex)
}
