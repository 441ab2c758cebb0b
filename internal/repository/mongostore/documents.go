// Package mongostore implements the repositories on MongoDB. Documents use
// ObjectIDs and camelCase field names; the rest of the application only
// sees hex string identifiers.
package mongostore

import (
	"errors"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/noah-isme/nade-api/internal/dto"
	"github.com/noah-isme/nade-api/internal/models"
	"github.com/noah-isme/nade-api/internal/repository"
)

type studentDoc struct {
	ID               primitive.ObjectID `bson:"_id,omitempty"`
	Name             string             `bson:"name"`
	Class            string             `bson:"class"`
	Grade            string             `bson:"grade"`
	BirthDate        *time.Time         `bson:"birthDate,omitempty"`
	ParentName       string             `bson:"parentName,omitempty"`
	ParentPhone      string             `bson:"parentPhone,omitempty"`
	ParentEmail      string             `bson:"parentEmail,omitempty"`
	EnrollmentNumber string             `bson:"enrollmentNumber"`
	Status           string             `bson:"status"`
	CreatedAt        time.Time          `bson:"createdAt"`
	UpdatedAt        time.Time          `bson:"updatedAt"`
}

func (d studentDoc) model() models.Student {
	return models.Student{
		ID:               d.ID.Hex(),
		Name:             d.Name,
		Class:            d.Class,
		Grade:            d.Grade,
		BirthDate:        d.BirthDate,
		ParentName:       d.ParentName,
		ParentPhone:      d.ParentPhone,
		ParentEmail:      d.ParentEmail,
		EnrollmentNumber: d.EnrollmentNumber,
		Status:           models.StudentStatus(d.Status),
		CreatedAt:        d.CreatedAt,
		UpdatedAt:        d.UpdatedAt,
	}
}

type userDoc struct {
	ID                   primitive.ObjectID `bson:"_id,omitempty"`
	Email                string             `bson:"email"`
	Password             string             `bson:"password"`
	Name                 string             `bson:"name"`
	Role                 string             `bson:"role"`
	ResetPasswordToken   *string            `bson:"resetPasswordToken,omitempty"`
	ResetPasswordExpires *time.Time         `bson:"resetPasswordExpires,omitempty"`
	CreatedAt            time.Time          `bson:"createdAt"`
	UpdatedAt            time.Time          `bson:"updatedAt"`
}

func (d userDoc) model() models.User {
	return models.User{
		ID:                   d.ID.Hex(),
		Email:                d.Email,
		PasswordHash:         d.Password,
		Name:                 d.Name,
		Role:                 models.UserRole(d.Role),
		ResetPasswordToken:   d.ResetPasswordToken,
		ResetPasswordExpires: d.ResetPasswordExpires,
		CreatedAt:            d.CreatedAt,
		UpdatedAt:            d.UpdatedAt,
	}
}

type occurrenceDoc struct {
	ID               primitive.ObjectID  `bson:"_id,omitempty"`
	Student          *primitive.ObjectID `bson:"student"`
	Type             string              `bson:"type"`
	Description      string              `bson:"description"`
	Date             time.Time           `bson:"date"`
	Time             string              `bson:"time"`
	Location         string              `bson:"location"`
	ReportedBy       primitive.ObjectID  `bson:"reportedBy"`
	Severity         string              `bson:"severity"`
	Status           string              `bson:"status"`
	Solicitante      string              `bson:"solicitante"`
	Envolvidos       []string            `bson:"envolvidos"`
	Motivos          []string            `bson:"motivos"`
	Acoes            []string            `bson:"acoes"`
	Conclusao        string              `bson:"conclusao"`
	Observacoes      string              `bson:"observacoes"`
	ParentNotified   bool                `bson:"parentNotified"`
	ParentNotifiedAt *time.Time          `bson:"parentNotifiedAt,omitempty"`
	CreatedAt        time.Time           `bson:"createdAt"`
	UpdatedAt        time.Time           `bson:"updatedAt"`

	// filled by $lookup in read pipelines; never written
	StudentRef []studentDoc `bson:"studentRef,omitempty"`
	UserRef    []userDoc    `bson:"userRef,omitempty"`
}

func (d occurrenceDoc) view() dto.OccurrenceView {
	v := dto.OccurrenceView{Occurrence: models.Occurrence{
		ID:               d.ID.Hex(),
		Type:             d.Type,
		Description:      d.Description,
		Date:             d.Date,
		Time:             d.Time,
		Location:         d.Location,
		ReportedBy:       d.ReportedBy.Hex(),
		Severity:         models.Severity(d.Severity),
		Status:           models.OccurrenceStatus(d.Status),
		Solicitante:      d.Solicitante,
		Envolvidos:       orEmpty(d.Envolvidos),
		Motivos:          orEmpty(d.Motivos),
		Acoes:            orEmpty(d.Acoes),
		Conclusao:        d.Conclusao,
		Observacoes:      d.Observacoes,
		ParentNotified:   d.ParentNotified,
		ParentNotifiedAt: d.ParentNotifiedAt,
		CreatedAt:        d.CreatedAt,
		UpdatedAt:        d.UpdatedAt,
	}}
	if d.Student != nil {
		id := d.Student.Hex()
		v.StudentID = &id
	}
	if len(d.StudentRef) > 0 {
		s := d.StudentRef[0]
		v.Student = &dto.StudentRef{ID: s.ID.Hex(), Name: s.Name, Class: s.Class, EnrollmentNumber: s.EnrollmentNumber}
	}
	if len(d.UserRef) > 0 {
		u := d.UserRef[0]
		v.ReportedBy = &dto.UserRef{ID: u.ID.Hex(), Name: u.Name}
	}
	return v
}

func orEmpty(list []string) []string {
	if list == nil {
		return []string{}
	}
	return list
}

// objectID parses a hex id. Malformed ids are reported as not found so the
// API answers 404 rather than 500 for garbage path parameters.
func objectID(id string) (primitive.ObjectID, error) {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return primitive.NilObjectID, repository.ErrNotFound
	}
	return oid, nil
}

func notFound(err error) error {
	if errors.Is(err, mongo.ErrNoDocuments) {
		return repository.ErrNotFound
	}
	return err
}
