package store

import (
	"context"
	"fmt"
	"time"

	"locallink/internal/utils"
	"locallink/pkg/types"

	"github.com/jackc/pgx/v5/pgxpool"
)

const reportTableName = "locallink.post_reports"

type ReportRepository struct {
	pool *pgxpool.Pool
}

func NewReportRepository(pool *pgxpool.Pool) *ReportRepository {
	return &ReportRepository{pool: pool}
}

func (r *ReportRepository) CreateReport(ctx context.Context, report *types.PostReport) error {

	report.ID = utils.NanoID()
	report.CreatedAt = time.Now()

	reportMap := utils.StructToMap(report)

	query, args, err := psql().Insert(reportTableName).SetMap(reportMap).ToSql()
	if err != nil {
		return fmt.Errorf("failed to generate insert report query: %w", err)
	}

	_, err = r.pool.Exec(ctx, query, args...)
	return utils.ErrorWrapOrNil(err, "failed to create report")
}
