package mongostore

import (
	"context"
	"fmt"
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/noah-isme/nade-api/internal/models"
	"github.com/noah-isme/nade-api/internal/query"
	"github.com/noah-isme/nade-api/internal/repository"
	"github.com/noah-isme/nade-api/pkg/database"
)

// StudentStore keeps students in the "students" collection.
type StudentStore struct {
	col *mongo.Collection
}

// NewStudentStore binds the store to db.
func NewStudentStore(db *mongo.Database) *StudentStore {
	return &StudentStore{col: db.Collection(database.CollectionStudents)}
}

// studentFilter matches the search term against name, class or enrollment number.
func studentFilter(f models.StudentFilter) bson.M {
	search := strings.TrimSpace(f.Search)
	if search == "" {
		return bson.M{}
	}
	pattern := primitiveRegex(query.RegexLiteral(search))
	return bson.M{"$or": bson.A{
		bson.M{"name": pattern},
		bson.M{"class": pattern},
		bson.M{"enrollmentNumber": pattern},
	}}
}

// List returns one page of students sorted by name.
func (s *StudentStore) List(ctx context.Context, f models.StudentFilter) ([]models.Student, int64, error) {
	filter := studentFilter(f)
	opts := options.Find().
		SetSort(bson.D{{Key: "name", Value: 1}}).
		SetSkip(int64(f.Offset))
	if f.Limit > 0 {
		opts.SetLimit(int64(f.Limit))
	}

	cur, err := s.col.Find(ctx, filter, opts)
	if err != nil {
		return nil, 0, fmt.Errorf("list students: %w", err)
	}
	var docs []studentDoc
	if err := cur.All(ctx, &docs); err != nil {
		return nil, 0, fmt.Errorf("decode students: %w", err)
	}

	total, err := s.col.CountDocuments(ctx, filter)
	if err != nil {
		return nil, 0, fmt.Errorf("count students: %w", err)
	}

	students := make([]models.Student, 0, len(docs))
	for _, d := range docs {
		students = append(students, d.model())
	}
	return students, total, nil
}

// FindByID returns a student by hex id.
func (s *StudentStore) FindByID(ctx context.Context, id string) (*models.Student, error) {
	oid, err := objectID(id)
	if err != nil {
		return nil, err
	}
	return s.findOne(ctx, bson.M{"_id": oid})
}

// FindByEnrollment returns the student holding an enrollment number.
func (s *StudentStore) FindByEnrollment(ctx context.Context, enrollment string) (*models.Student, error) {
	return s.findOne(ctx, bson.M{"enrollmentNumber": enrollment})
}

func (s *StudentStore) findOne(ctx context.Context, filter bson.M) (*models.Student, error) {
	var doc studentDoc
	if err := s.col.FindOne(ctx, filter).Decode(&doc); err != nil {
		return nil, notFound(err)
	}
	student := doc.model()
	return &student, nil
}

// Create inserts a student and writes the generated id back.
func (s *StudentStore) Create(ctx context.Context, student *models.Student) error {
	now := time.Now().UTC()
	doc := studentDoc{
		Name:             student.Name,
		Class:            student.Class,
		Grade:            student.Grade,
		BirthDate:        student.BirthDate,
		ParentName:       student.ParentName,
		ParentPhone:      student.ParentPhone,
		ParentEmail:      student.ParentEmail,
		EnrollmentNumber: student.EnrollmentNumber,
		Status:           string(student.Status),
		CreatedAt:        now,
		UpdatedAt:        now,
	}
	res, err := s.col.InsertOne(ctx, doc)
	if err != nil {
		return fmt.Errorf("create student: %w", duplicate(err))
	}
	student.ID = insertedHex(res)
	student.CreatedAt, student.UpdatedAt = now, now
	return nil
}

// Update overwrites the mutable fields. enrollmentNumber is never $set.
func (s *StudentStore) Update(ctx context.Context, student *models.Student) error {
	oid, err := objectID(student.ID)
	if err != nil {
		return err
	}
	student.UpdatedAt = time.Now().UTC()
	set := bson.M{
		"name":        student.Name,
		"class":       student.Class,
		"grade":       student.Grade,
		"birthDate":   student.BirthDate,
		"parentName":  student.ParentName,
		"parentPhone": student.ParentPhone,
		"parentEmail": student.ParentEmail,
		"status":      string(student.Status),
		"updatedAt":   student.UpdatedAt,
	}
	res, err := s.col.UpdateOne(ctx, bson.M{"_id": oid}, bson.M{"$set": set})
	if err != nil {
		return fmt.Errorf("update student: %w", err)
	}
	if res.MatchedCount == 0 {
		return repository.ErrNotFound
	}
	return nil
}

// Delete removes a student. Occurrences referencing it are left untouched.
func (s *StudentStore) Delete(ctx context.Context, id string) error {
	oid, err := objectID(id)
	if err != nil {
		return err
	}
	res, err := s.col.DeleteOne(ctx, bson.M{"_id": oid})
	if err != nil {
		return fmt.Errorf("delete student: %w", err)
	}
	if res.DeletedCount == 0 {
		return repository.ErrNotFound
	}
	return nil
}
