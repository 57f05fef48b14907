package routes

import "github.com/danielgtaylor/huma/v2"

var (
	BearerAuth = []map[string][]string{
		{"bearer": {}},
	}
)

type Tag string

const (
	TagHealth    Tag = "health"
	TagUsers     Tag = "users"
	TagOAuth     Tag = "oauth"
	TagRecommend Tag = "recommend"
	TagModel     Tag = "model"
	TagHistory   Tag = "history"
)

func (t Tag) String() string { return string(t) }

var tagDescriptions = []*huma.Tag{
	{Name: TagHealth.String(), Description: "Liveness and database reachability"},
	{Name: TagUsers.String(), Description: "Registration, login and the caller's profile"},
	{Name: TagOAuth.String(), Description: "Kakao authorization code flow"},
	{Name: TagRecommend.String(), Description: "Daily intake against the recommended target"},
	{Name: TagModel.String(), Description: "Meal photo classification"},
	{Name: TagHistory.String(), Description: "Recorded meals"},
}

func addTags(api huma.API) {
	oapi := api.OpenAPI()
	for _, tag := range tagDescriptions {
		exists := false
		for _, t := range oapi.Tags {
			if t.Name == tag.Name {
				exists = true
				break
			}
		}
		if !exists {
			oapi.Tags = append(oapi.Tags, tag)
		}
	}
}

const apiPrefix = "/api/v1"
