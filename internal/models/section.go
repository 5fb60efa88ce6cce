package models

import (
	"time"

	"go.mongodb.org/mongo-driver/v2/bson"
)

// SectionKind names a profile entry type. The value doubles as the field name
// under profileSection on the user document.
type SectionKind string

const (
	SectionEducation                SectionKind = "education"
	SectionProject                  SectionKind = "project"
	SectionCertificate              SectionKind = "certificate"
	SectionPositionOfResponsibility SectionKind = "positionOfResponsibility"
	SectionWorkExperience           SectionKind = "workExperience"
)

var SectionKinds = []SectionKind{
	SectionEducation,
	SectionProject,
	SectionCertificate,
	SectionPositionOfResponsibility,
	SectionWorkExperience,
}

var sectionCollections = map[SectionKind]string{
	SectionEducation:                "educations",
	SectionProject:                  "projects",
	SectionCertificate:              "certificates",
	SectionPositionOfResponsibility: "positionsOfResponsibility",
	SectionWorkExperience:           "workExperiences",
}

func (k SectionKind) Valid() bool {
	_, ok := sectionCollections[k]
	return ok
}

// Collection is the collection the entries of this kind live in.
func (k SectionKind) Collection() string { return sectionCollections[k] }

// Field is the dotted path of the reference list on the user document.
func (k SectionKind) Field() string { return "profileSection." + string(k) }

type Education struct {
	ID           bson.ObjectID `bson:"_id,omitempty" json:"_id"`
	Owner        bson.ObjectID `bson:"owner" json:"owner"`
	University   string        `bson:"university,omitempty" json:"university,omitempty"`
	Degree       string        `bson:"degree" json:"degree"`
	Grade        string        `bson:"grade,omitempty" json:"grade,omitempty"`
	FieldOfStudy string        `bson:"fieldOfStudy,omitempty" json:"fieldOfStudy,omitempty"`
	StartDate    *time.Time    `bson:"startDate,omitempty" json:"startDate,omitempty"`
	EndDate      *time.Time    `bson:"endDate,omitempty" json:"endDate,omitempty"`
	CreatedAt    time.Time     `bson:"createdAt" json:"createdAt"`
}

type Project struct {
	ID           bson.ObjectID `bson:"_id,omitempty" json:"_id"`
	Owner        bson.ObjectID `bson:"owner" json:"owner"`
	ProjectTitle string        `bson:"projectTitle" json:"projectTitle"`
	Description  string        `bson:"description,omitempty" json:"description,omitempty"`
	ProjectLink  string        `bson:"projectLink,omitempty" json:"projectLink,omitempty"`
	Skills       []string      `bson:"skills" json:"skills"`
	CreatedAt    time.Time     `bson:"createdAt" json:"createdAt"`
}

type Certificate struct {
	ID              bson.ObjectID `bson:"_id,omitempty" json:"_id"`
	Owner           bson.ObjectID `bson:"owner" json:"owner"`
	Title           string        `bson:"title" json:"title"`
	Description     string        `bson:"description,omitempty" json:"description,omitempty"`
	CertificateLink string        `bson:"certificateLink,omitempty" json:"certificateLink,omitempty"`
	CreatedAt       time.Time     `bson:"createdAt" json:"createdAt"`
}

type PositionOfResponsibility struct {
	ID                       bson.ObjectID `bson:"_id,omitempty" json:"_id"`
	Owner                    bson.ObjectID `bson:"owner" json:"owner"`
	PositionOfResponsibility string        `bson:"positionOfResponsibility" json:"positionOfResponsibility"`
	Institute                string        `bson:"institute" json:"institute"`
	CreatedAt                time.Time     `bson:"createdAt" json:"createdAt"`
}

type WorkExperience struct {
	ID              bson.ObjectID `bson:"_id,omitempty" json:"_id"`
	Owner           bson.ObjectID `bson:"owner" json:"owner"`
	CompanyName     string        `bson:"companyName" json:"companyName"`
	CertificateLink string        `bson:"certificateLink,omitempty" json:"certificateLink,omitempty"`
	StartDate       *time.Time    `bson:"startDate,omitempty" json:"startDate,omitempty"`
	EndDate         *time.Time    `bson:"endDate,omitempty" json:"endDate,omitempty"`
	CreatedAt       time.Time     `bson:"createdAt" json:"createdAt"`
}
