package models

import (
	"time"

	"go.mongodb.org/mongo-driver/v2/bson"
)

type User struct {
	ID             bson.ObjectID   `bson:"_id,omitempty" json:"_id"`
	FullName       string          `bson:"fullName" json:"fullName"`
	Email          string          `bson:"email" json:"email"`
	CollegeName    string          `bson:"collegeName" json:"collegeName"`
	ProgrammeName  string          `bson:"programmeName,omitempty" json:"programmeName,omitempty"`
	BranchName     string          `bson:"branchName,omitempty" json:"branchName,omitempty"`
	PhoneNumber    string          `bson:"phoneNumber" json:"phoneNumber"`
	ProfilePicture string          `bson:"profilePicture,omitempty" json:"profilePicture,omitempty"`
	Domain         []string        `bson:"domain" json:"domain"`
	AboutMe        string          `bson:"aboutMe,omitempty" json:"aboutMe,omitempty"`
	Password       string          `bson:"password" json:"-"`
	RefreshToken   string          `bson:"refreshToken,omitempty" json:"-"`
	IsVerified     bool            `bson:"isVerified" json:"isVerified"`
	ProfileSection ProfileSection  `bson:"profileSection" json:"profileSection"`
	Openings       []bson.ObjectID `bson:"openings" json:"openings"`
	CreatedAt      time.Time       `bson:"createdAt" json:"createdAt"`
	UpdatedAt      time.Time       `bson:"updatedAt" json:"updatedAt"`
}

// ProfileSection holds references to the user's profile entries. Skills are
// stored inline.
type ProfileSection struct {
	Education                []bson.ObjectID `bson:"education" json:"education"`
	Project                  []bson.ObjectID `bson:"project" json:"project"`
	Certificate              []bson.ObjectID `bson:"certificate" json:"certificate"`
	PositionOfResponsibility []bson.ObjectID `bson:"positionOfResponsibility" json:"positionOfResponsibility"`
	WorkExperience           []bson.ObjectID `bson:"workExperience" json:"workExperience"`
	Skills                   []string        `bson:"skills" json:"skills"`
}

// Refs returns the reference list for kind.
func (p *ProfileSection) Refs(kind SectionKind) []bson.ObjectID {
	switch kind {
	case SectionEducation:
		return p.Education
	case SectionProject:
		return p.Project
	case SectionCertificate:
		return p.Certificate
	case SectionPositionOfResponsibility:
		return p.PositionOfResponsibility
	case SectionWorkExperience:
		return p.WorkExperience
	}
	return nil
}

// SetRefs replaces the reference list for kind.
func (p *ProfileSection) SetRefs(kind SectionKind, refs []bson.ObjectID) {
	switch kind {
	case SectionEducation:
		p.Education = refs
	case SectionProject:
		p.Project = refs
	case SectionCertificate:
		p.Certificate = refs
	case SectionPositionOfResponsibility:
		p.PositionOfResponsibility = refs
	case SectionWorkExperience:
		p.WorkExperience = refs
	}
}

// Normalize replaces nil lists with empty ones so the stored document has
// arrays that $push and $pull can operate on.
func (u *User) Normalize() {
	if u.Domain == nil {
		u.Domain = []string{}
	}
	if u.Openings == nil {
		u.Openings = []bson.ObjectID{}
	}
	for _, kind := range SectionKinds {
		if u.ProfileSection.Refs(kind) == nil {
			u.ProfileSection.SetRefs(kind, []bson.ObjectID{})
		}
	}
	if u.ProfileSection.Skills == nil {
		u.ProfileSection.Skills = []string{}
	}
}
