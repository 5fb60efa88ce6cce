package models

import (
	"time"

	"go.mongodb.org/mongo-driver/v2/bson"
)

const (
	JobTypeRemote = "remote"
	JobTypeOnsite = "onsite"
)

// JobDetails are the posting fields shared by the stored and the joined form.
type JobDetails struct {
	Title            string    `bson:"titleOfJob" json:"titleOfJob"`
	Domain           []string  `bson:"domain" json:"domain"`
	DetailsLink      string    `bson:"moreAboutJob" json:"moreAboutJob"`
	Stipend          float64   `bson:"stipend" json:"stipend"`
	DurationInMonths int       `bson:"durationInMonths" json:"durationInMonths"`
	LastDate         time.Time `bson:"lastDate" json:"lastDate"`
	TypeOfJob        string    `bson:"typeOfJob" json:"typeOfJob"`
	Likes            int       `bson:"likes" json:"likes"`
}

type JobPosting struct {
	ID    bson.ObjectID `bson:"_id,omitempty" json:"_id"`
	Owner bson.ObjectID `bson:"user" json:"user"`

	JobDetails `bson:",inline"`

	CreatedAt time.Time `bson:"createdAt" json:"createdAt"`
	UpdatedAt time.Time `bson:"updatedAt" json:"updatedAt"`
}

// JobPostingView is a posting with its owner document joined in.
type JobPostingView struct {
	ID    bson.ObjectID `bson:"_id,omitempty" json:"_id"`
	Owner *User         `bson:"user" json:"user"`

	JobDetails `bson:",inline"`

	CreatedAt time.Time `bson:"createdAt" json:"createdAt"`
	UpdatedAt time.Time `bson:"updatedAt" json:"updatedAt"`
}

// JobType derives the stored classification from the submitted flags.
func JobType(isRemote bool) string {
	if isRemote {
		return JobTypeRemote
	}
	return JobTypeOnsite
}
