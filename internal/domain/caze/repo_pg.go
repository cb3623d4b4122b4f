package caze

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/epitrack/epitrack/internal/domain/disease"
	"github.com/epitrack/epitrack/internal/platform/db"
)

type queryable interface {
	Query(ctx context.Context, sql string, args ...interface{}) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...interface{}) pgx.Row
	Exec(ctx context.Context, sql string, args ...interface{}) (pgconn.CommandTag, error)
}

type repoPG struct{ pool *pgxpool.Pool }

func NewRepoPG(pool *pgxpool.Pool) Repository {
	return &repoPG{pool: pool}
}

func (r *repoPG) conn(ctx context.Context) queryable {
	if tx := db.TxFromContext(ctx); tx != nil {
		return tx
	}
	return r.pool
}

// The owned sub-records (symptoms, hospitalization, epi data, maternal
// history, port health info) live in jsonb columns on the case row.
const caseCols = `id, epid_number, external_id, external_token, disease, disease_variant,
	disease_details, person_id, case_classification, classification_user_id,
	classification_date, system_classification, investigation_status, investigated_date,
	outcome, outcome_date, report_date, reporting_user_id, responsible_region_id,
	responsible_district_id, responsible_community_id, region_id, district_id,
	community_id, health_facility_id, facility_details, surveillance_officer_id,
	follow_up_status, follow_up_until, overwrite_follow_up_until, follow_up_comment,
	case_reference_definition, additional_details, therapy_id, clinical_course_id,
	symptoms, hospitalization, epi_data, maternal_history, port_health_info,
	deleted, archived, created_at, updated_at`

func scanCase(row pgx.Row) (*Case, error) {
	var c Case
	err := row.Scan(
		&c.ID, &c.EpidNumber, &c.ExternalID, &c.ExternalToken, &c.Disease, &c.DiseaseVariant,
		&c.DiseaseDetails, &c.PersonID, &c.CaseClassification, &c.ClassificationUserID,
		&c.ClassificationDate, &c.SystemClassification, &c.InvestigationStatus, &c.InvestigatedDate,
		&c.Outcome, &c.OutcomeDate, &c.ReportDate, &c.ReportingUserID, &c.ResponsibleRegionID,
		&c.ResponsibleDistrictID, &c.ResponsibleCommunityID, &c.RegionID, &c.DistrictID,
		&c.CommunityID, &c.HealthFacilityID, &c.FacilityDetails, &c.SurveillanceOfficerID,
		&c.FollowUpStatus, &c.FollowUpUntil, &c.OverwriteFollowUpUntil, &c.FollowUpComment,
		&c.CaseReferenceDefinition, &c.AdditionalDetails, &c.TherapyID, &c.ClinicalCourseID,
		&c.Symptoms, &c.Hospitalization, &c.EpiData, &c.MaternalHistory, &c.PortHealthInfo,
		&c.Deleted, &c.Archived, &c.CreatedAt, &c.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &c, nil
}

func (r *repoPG) Create(ctx context.Context, c *Case) error {
	if c.ID == uuid.Nil {
		c.ID = uuid.New()
	}
	now := time.Now().UTC()
	c.CreatedAt = now
	c.UpdatedAt = now
	_, err := r.conn(ctx).Exec(ctx, `
		INSERT INTO case_record (id, epid_number, external_id, external_token, disease,
			disease_variant, disease_details, person_id, case_classification,
			classification_user_id, classification_date, system_classification,
			investigation_status, investigated_date, outcome, outcome_date, report_date,
			reporting_user_id, responsible_region_id, responsible_district_id,
			responsible_community_id, region_id, district_id, community_id,
			health_facility_id, facility_details, surveillance_officer_id,
			follow_up_status, follow_up_until, overwrite_follow_up_until,
			follow_up_comment, case_reference_definition, additional_details, therapy_id,
			clinical_course_id, symptoms, hospitalization, epi_data, maternal_history,
			port_health_info, deleted, archived, created_at, updated_at)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15,$16,$17,$18,$19,$20,
			$21,$22,$23,$24,$25,$26,$27,$28,$29,$30,$31,$32,$33,$34,$35,$36,$37,$38,$39,
			$40,$41,$42,$43,$44)`,
		c.ID, c.EpidNumber, c.ExternalID, c.ExternalToken, c.Disease,
		c.DiseaseVariant, c.DiseaseDetails, c.PersonID, c.CaseClassification,
		c.ClassificationUserID, c.ClassificationDate, c.SystemClassification,
		c.InvestigationStatus, c.InvestigatedDate, c.Outcome, c.OutcomeDate, c.ReportDate,
		c.ReportingUserID, c.ResponsibleRegionID, c.ResponsibleDistrictID,
		c.ResponsibleCommunityID, c.RegionID, c.DistrictID, c.CommunityID,
		c.HealthFacilityID, c.FacilityDetails, c.SurveillanceOfficerID,
		c.FollowUpStatus, c.FollowUpUntil, c.OverwriteFollowUpUntil,
		c.FollowUpComment, c.CaseReferenceDefinition, c.AdditionalDetails, c.TherapyID,
		c.ClinicalCourseID, c.Symptoms, c.Hospitalization, c.EpiData, c.MaternalHistory,
		c.PortHealthInfo, c.Deleted, c.Archived, c.CreatedAt, c.UpdatedAt)
	return err
}

func (r *repoPG) Save(ctx context.Context, c *Case) error {
	c.UpdatedAt = time.Now().UTC()
	tag, err := r.conn(ctx).Exec(ctx, `
		UPDATE case_record SET epid_number=$2, external_id=$3, external_token=$4,
			disease=$5, disease_variant=$6, disease_details=$7, person_id=$8,
			case_classification=$9, classification_user_id=$10, classification_date=$11,
			system_classification=$12, investigation_status=$13, investigated_date=$14,
			outcome=$15, outcome_date=$16, report_date=$17, reporting_user_id=$18,
			responsible_region_id=$19, responsible_district_id=$20,
			responsible_community_id=$21, region_id=$22, district_id=$23,
			community_id=$24, health_facility_id=$25, facility_details=$26,
			surveillance_officer_id=$27, follow_up_status=$28, follow_up_until=$29,
			overwrite_follow_up_until=$30, follow_up_comment=$31,
			case_reference_definition=$32, additional_details=$33, therapy_id=$34,
			clinical_course_id=$35, symptoms=$36, hospitalization=$37, epi_data=$38,
			maternal_history=$39, port_health_info=$40, deleted=$41, archived=$42,
			updated_at=$43
		WHERE id = $1`,
		c.ID, c.EpidNumber, c.ExternalID, c.ExternalToken,
		c.Disease, c.DiseaseVariant, c.DiseaseDetails, c.PersonID,
		c.CaseClassification, c.ClassificationUserID, c.ClassificationDate,
		c.SystemClassification, c.InvestigationStatus, c.InvestigatedDate,
		c.Outcome, c.OutcomeDate, c.ReportDate, c.ReportingUserID,
		c.ResponsibleRegionID, c.ResponsibleDistrictID,
		c.ResponsibleCommunityID, c.RegionID, c.DistrictID,
		c.CommunityID, c.HealthFacilityID, c.FacilityDetails,
		c.SurveillanceOfficerID, c.FollowUpStatus, c.FollowUpUntil,
		c.OverwriteFollowUpUntil, c.FollowUpComment,
		c.CaseReferenceDefinition, c.AdditionalDetails, c.TherapyID,
		c.ClinicalCourseID, c.Symptoms, c.Hospitalization, c.EpiData,
		c.MaternalHistory, c.PortHealthInfo, c.Deleted, c.Archived,
		c.UpdatedAt)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *repoPG) GetByID(ctx context.Context, id uuid.UUID) (*Case, error) {
	c, err := scanCase(r.conn(ctx).QueryRow(ctx,
		`SELECT `+caseCols+` FROM case_record WHERE id = $1 AND deleted = false`, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	return c, err
}

func (r *repoPG) ListByPersonID(ctx context.Context, personID uuid.UUID) ([]*Case, error) {
	rows, err := r.conn(ctx).Query(ctx, `
		SELECT `+caseCols+` FROM case_record
		WHERE person_id = $1 AND deleted = false
		ORDER BY report_date`, personID)
	if err != nil {
		return nil, err
	}
	return collectCases(rows)
}

func (r *repoPG) List(ctx context.Context, limit, offset int) ([]*Case, int, error) {
	var total int
	if err := r.conn(ctx).QueryRow(ctx,
		`SELECT count(*) FROM case_record WHERE deleted = false`).Scan(&total); err != nil {
		return nil, 0, err
	}
	rows, err := r.conn(ctx).Query(ctx, `
		SELECT `+caseCols+` FROM case_record
		WHERE deleted = false
		ORDER BY created_at DESC
		LIMIT $1 OFFSET $2`, limit, offset)
	if err != nil {
		return nil, 0, err
	}
	cases, err := collectCases(rows)
	return cases, total, err
}

func (r *repoPG) ListEpidNumbersByPrefix(ctx context.Context, prefix string, excludeCaseID uuid.UUID, d disease.Disease) ([]string, error) {
	rows, err := r.conn(ctx).Query(ctx, `
		SELECT epid_number FROM case_record
		WHERE disease = $1 AND epid_number LIKE $2 || '%' AND id <> $3 AND deleted = false`,
		d, prefix, excludeCaseID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var numbers []string
	for rows.Next() {
		var n string
		if err := rows.Scan(&n); err != nil {
			return nil, err
		}
		numbers = append(numbers, n)
	}
	return numbers, rows.Err()
}

func (r *repoPG) CountByExternalID(ctx context.Context, externalID string, excludeCaseID uuid.UUID) (int, error) {
	var count int
	err := r.conn(ctx).QueryRow(ctx, `
		SELECT count(*) FROM case_record
		WHERE external_id = $1 AND id <> $2 AND deleted = false`,
		externalID, excludeCaseID).Scan(&count)
	return count, err
}

func (r *repoPG) ListDuplicateCandidates(ctx context.Context, d disease.Disease, reportDate time.Time, window time.Duration) ([]*Case, error) {
	rows, err := r.conn(ctx).Query(ctx, `
		SELECT `+caseCols+` FROM case_record
		WHERE disease = $1 AND report_date BETWEEN $2 AND $3 AND deleted = false`,
		d, reportDate.Add(-window), reportDate.Add(window))
	if err != nil {
		return nil, err
	}
	return collectCases(rows)
}

func (r *repoPG) ListForDuplicateReview(ctx context.Context, limit int) ([]*Case, error) {
	rows, err := r.conn(ctx).Query(ctx, `
		SELECT `+caseCols+` FROM case_record
		WHERE deleted = false
		ORDER BY created_at DESC
		LIMIT $1`, limit)
	if err != nil {
		return nil, err
	}
	return collectCases(rows)
}

func collectCases(rows pgx.Rows) ([]*Case, error) {
	defer rows.Close()
	var cases []*Case
	for rows.Next() {
		c, err := scanCase(rows)
		if err != nil {
			return nil, err
		}
		cases = append(cases, c)
	}
	return cases, rows.Err()
}
