package mongostore

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/noah-isme/nade-api/internal/dto"
	"github.com/noah-isme/nade-api/internal/models"
	"github.com/noah-isme/nade-api/internal/repository"
	"github.com/noah-isme/nade-api/pkg/database"
)

// OccurrenceStore keeps NADE records in the "occurrences" collection and
// populates student and reporter through $lookup.
type OccurrenceStore struct {
	col *mongo.Collection
}

// NewOccurrenceStore binds the store to db.
func NewOccurrenceStore(db *mongo.Database) *OccurrenceStore {
	return &OccurrenceStore{col: db.Collection(database.CollectionOccurrences)}
}

// occurrenceFilter translates the builder output into a Mongo filter.
// A studentId that is not an ObjectID is kept as a string so it matches nothing.
func occurrenceFilter(f models.OccurrenceFilter) bson.M {
	filter := bson.M{}
	if f.StudentID != "" {
		if oid, err := primitive.ObjectIDFromHex(f.StudentID); err == nil {
			filter["student"] = oid
		} else {
			filter["student"] = f.StudentID
		}
	}
	if f.Type != "" {
		filter["type"] = f.Type
	}
	if f.Status != "" {
		filter["status"] = f.Status
	}

	date := bson.M{}
	if f.DateFrom != nil {
		date["$gte"] = *f.DateFrom
	}
	if f.DateTo != nil {
		date["$lte"] = *f.DateTo
	}
	if f.DateBefore != nil {
		date["$lt"] = *f.DateBefore
	}
	if len(date) > 0 {
		filter["date"] = date
	}
	return filter
}

func populateStages() mongo.Pipeline {
	return mongo.Pipeline{
		{{Key: "$lookup", Value: bson.M{
			"from":         database.CollectionStudents,
			"localField":   "student",
			"foreignField": "_id",
			"as":           "studentRef",
		}}},
		{{Key: "$lookup", Value: bson.M{
			"from":         database.CollectionUsers,
			"localField":   "reportedBy",
			"foreignField": "_id",
			"as":           "userRef",
		}}},
		{{Key: "$project", Value: bson.M{
			"userRef.password":             0,
			"userRef.resetPasswordToken":   0,
			"userRef.resetPasswordExpires": 0,
		}}},
	}
}

func listPipeline(filter bson.M, skip, limit int) mongo.Pipeline {
	p := mongo.Pipeline{
		{{Key: "$match", Value: filter}},
		{{Key: "$sort", Value: bson.D{{Key: "createdAt", Value: -1}}}},
	}
	if skip > 0 {
		p = append(p, bson.D{{Key: "$skip", Value: int64(skip)}})
	}
	if limit > 0 {
		p = append(p, bson.D{{Key: "$limit", Value: int64(limit)}})
	}
	return append(p, populateStages()...)
}

func (s *OccurrenceStore) aggregate(ctx context.Context, pipeline mongo.Pipeline) ([]occurrenceDoc, error) {
	cur, err := s.col.Aggregate(ctx, pipeline)
	if err != nil {
		return nil, err
	}
	var docs []occurrenceDoc
	if err := cur.All(ctx, &docs); err != nil {
		return nil, err
	}
	return docs, nil
}

// List returns one page of populated occurrences, newest first.
func (s *OccurrenceStore) List(ctx context.Context, f models.OccurrenceFilter) ([]dto.OccurrenceView, int64, error) {
	filter := occurrenceFilter(f)
	docs, err := s.aggregate(ctx, listPipeline(filter, f.Offset, f.Limit))
	if err != nil {
		return nil, 0, fmt.Errorf("list occurrences: %w", err)
	}
	total, err := s.col.CountDocuments(ctx, filter)
	if err != nil {
		return nil, 0, fmt.Errorf("count occurrences: %w", err)
	}

	views := make([]dto.OccurrenceView, 0, len(docs))
	for _, d := range docs {
		views = append(views, d.view())
	}
	return views, total, nil
}

// FindByID returns one populated occurrence.
func (s *OccurrenceStore) FindByID(ctx context.Context, id string) (*dto.OccurrenceView, error) {
	oid, err := objectID(id)
	if err != nil {
		return nil, err
	}
	docs, err := s.aggregate(ctx, listPipeline(bson.M{"_id": oid}, 0, 1))
	if err != nil {
		return nil, fmt.Errorf("find occurrence: %w", err)
	}
	if len(docs) == 0 {
		return nil, repository.ErrNotFound
	}
	v := docs[0].view()
	return &v, nil
}

// Create inserts an occurrence and writes the generated id back.
func (s *OccurrenceStore) Create(ctx context.Context, o *models.Occurrence) error {
	reporter, err := primitive.ObjectIDFromHex(o.ReportedBy)
	if err != nil {
		return fmt.Errorf("create occurrence: invalid reporter id %q", o.ReportedBy)
	}
	var student *primitive.ObjectID
	if o.StudentID != nil {
		oid, err := primitive.ObjectIDFromHex(*o.StudentID)
		if err != nil {
			return fmt.Errorf("create occurrence: %w", repository.ErrNotFound)
		}
		student = &oid
	}

	now := time.Now().UTC()
	doc := occurrenceDoc{
		Student:          student,
		Type:             o.Type,
		Description:      o.Description,
		Date:             o.Date,
		Time:             o.Time,
		Location:         o.Location,
		ReportedBy:       reporter,
		Severity:         string(o.Severity),
		Status:           string(o.Status),
		Solicitante:      o.Solicitante,
		Envolvidos:       orEmpty(o.Envolvidos),
		Motivos:          orEmpty(o.Motivos),
		Acoes:            orEmpty(o.Acoes),
		Conclusao:        o.Conclusao,
		Observacoes:      o.Observacoes,
		ParentNotified:   o.ParentNotified,
		ParentNotifiedAt: o.ParentNotifiedAt,
		CreatedAt:        now,
		UpdatedAt:        now,
	}
	res, err := s.col.InsertOne(ctx, doc)
	if err != nil {
		return fmt.Errorf("create occurrence: %w", err)
	}
	o.ID = insertedHex(res)
	o.CreatedAt, o.UpdatedAt = now, now
	return nil
}

// patchSet converts a patch into a $set document. The student reference is
// not part of OccurrencePatch and is therefore never written here.
func patchSet(p models.OccurrencePatch) bson.M {
	set := bson.M{}
	if p.Type != nil {
		set["type"] = *p.Type
	}
	if p.Description != nil {
		set["description"] = *p.Description
	}
	if p.Date != nil {
		set["date"] = *p.Date
	}
	if p.Time != nil {
		set["time"] = *p.Time
	}
	if p.Location != nil {
		set["location"] = *p.Location
	}
	if p.Severity != nil {
		set["severity"] = string(*p.Severity)
	}
	if p.Status != nil {
		set["status"] = string(*p.Status)
	}
	if p.Solicitante != nil {
		set["solicitante"] = *p.Solicitante
	}
	if p.Envolvidos != nil {
		set["envolvidos"] = orEmpty(*p.Envolvidos)
	}
	if p.Motivos != nil {
		set["motivos"] = orEmpty(*p.Motivos)
	}
	if p.Acoes != nil {
		set["acoes"] = orEmpty(*p.Acoes)
	}
	if p.Conclusao != nil {
		set["conclusao"] = *p.Conclusao
	}
	if p.Observacoes != nil {
		set["observacoes"] = *p.Observacoes
	}
	if p.ParentNotified != nil {
		set["parentNotified"] = *p.ParentNotified
	}
	if p.ParentNotifiedAt != nil {
		set["parentNotifiedAt"] = *p.ParentNotifiedAt
	}
	updatedAt := p.UpdatedAt
	if updatedAt.IsZero() {
		updatedAt = time.Now().UTC()
	}
	set["updatedAt"] = updatedAt
	return set
}

// Update applies the non-nil fields of patch.
func (s *OccurrenceStore) Update(ctx context.Context, id string, patch models.OccurrencePatch) error {
	oid, err := objectID(id)
	if err != nil {
		return err
	}
	res, err := s.col.UpdateOne(ctx, bson.M{"_id": oid}, bson.M{"$set": patchSet(patch)})
	if err != nil {
		return fmt.Errorf("update occurrence: %w", err)
	}
	if res.MatchedCount == 0 {
		return repository.ErrNotFound
	}
	return nil
}

// Delete removes an occurrence.
func (s *OccurrenceStore) Delete(ctx context.Context, id string) error {
	oid, err := objectID(id)
	if err != nil {
		return err
	}
	res, err := s.col.DeleteOne(ctx, bson.M{"_id": oid})
	if err != nil {
		return fmt.Errorf("delete occurrence: %w", err)
	}
	if res.DeletedCount == 0 {
		return repository.ErrNotFound
	}
	return nil
}

// CountByStatus counts occurrences whose status is one of statuses.
func (s *OccurrenceStore) CountByStatus(ctx context.Context, statuses []models.OccurrenceStatus) (int64, error) {
	values := make(bson.A, len(statuses))
	for i, st := range statuses {
		values[i] = string(st)
	}
	n, err := s.col.CountDocuments(ctx, bson.M{"status": bson.M{"$in": values}})
	if err != nil {
		return 0, fmt.Errorf("count occurrences by status: %w", err)
	}
	return n, nil
}

// CountCreatedBetween counts occurrences with from <= createdAt < to.
func (s *OccurrenceStore) CountCreatedBetween(ctx context.Context, from, to time.Time) (int64, error) {
	n, err := s.col.CountDocuments(ctx, bson.M{"createdAt": bson.M{"$gte": from, "$lt": to}})
	if err != nil {
		return 0, fmt.Errorf("count occurrences created between: %w", err)
	}
	return n, nil
}

func typeCountPipeline(limit int) mongo.Pipeline {
	return mongo.Pipeline{
		{{Key: "$group", Value: bson.M{"_id": "$type", "count": bson.M{"$sum": 1}}}},
		{{Key: "$sort", Value: bson.D{{Key: "count", Value: -1}, {Key: "_id", Value: 1}}}},
		{{Key: "$limit", Value: int64(limit)}},
		{{Key: "$project", Value: bson.M{"_id": 0, "type": "$_id", "count": 1}}},
	}
}

// CountByType groups by type, largest first, ties by type name.
func (s *OccurrenceStore) CountByType(ctx context.Context, limit int) ([]models.TypeCount, error) {
	cur, err := s.col.Aggregate(ctx, typeCountPipeline(limit))
	if err != nil {
		return nil, fmt.Errorf("count occurrences by type: %w", err)
	}
	counts := []models.TypeCount{}
	if err := cur.All(ctx, &counts); err != nil {
		return nil, fmt.Errorf("decode type counts: %w", err)
	}
	return counts, nil
}

// Recent returns the newest occurrences with the student's name and class.
func (s *OccurrenceStore) Recent(ctx context.Context, limit int) ([]dto.RecentOccurrence, error) {
	pipeline := mongo.Pipeline{
		{{Key: "$sort", Value: bson.D{{Key: "createdAt", Value: -1}}}},
		{{Key: "$limit", Value: int64(limit)}},
		{{Key: "$lookup", Value: bson.M{
			"from":         database.CollectionStudents,
			"localField":   "student",
			"foreignField": "_id",
			"as":           "studentRef",
		}}},
		{{Key: "$project", Value: bson.M{
			"type": 1, "severity": 1, "createdAt": 1,
			"studentRef.name": 1, "studentRef.class": 1,
		}}},
	}
	docs, err := s.aggregate(ctx, pipeline)
	if err != nil {
		return nil, fmt.Errorf("recent occurrences: %w", err)
	}

	out := make([]dto.RecentOccurrence, 0, len(docs))
	for _, d := range docs {
		rec := dto.RecentOccurrence{
			ID:        d.ID.Hex(),
			Type:      d.Type,
			Severity:  models.Severity(d.Severity),
			CreatedAt: d.CreatedAt,
		}
		if len(d.StudentRef) > 0 {
			rec.Student = &dto.StudentBrief{Name: d.StudentRef[0].Name, Class: d.StudentRef[0].Class}
		}
		out = append(out, rec)
	}
	return out, nil
}
