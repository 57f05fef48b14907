package routes

import (
	"time"

	"github.com/danielgtaylor/huma/v2"
	"github.com/quatton/qwell/pkg/qapi/services"
	"github.com/quatton/qwell/pkg/qlog"
)

// RegisterAPI mounts every operation. A nil svcs registers the operations
// without backends, which is enough to render the OpenAPI document.
func RegisterAPI(api huma.API, svcs *services.Services) {
	addTags(api)

	if svcs == nil {
		logger := qlog.NewDiscard()
		RegisterHealth(api, nil)
		RegisterUsers(api, nil, nil, logger)
		RegisterOAuth(api, nil, logger)
		RegisterRecommend(api, nil, logger)
		RegisterHistory(api, nil, logger)
		RegisterModel(api, ModelDeps{Logger: logger})
		return
	}

	api.UseMiddleware(svcs.IAM.Middleware(api))

	logger := svcs.Logger.With("component", "routes")
	RegisterHealth(api, svcs.Store)
	RegisterUsers(api, svcs.Users, svcs.Auth, logger)
	RegisterOAuth(api, svcs.Auth, logger)
	RegisterRecommend(api, svcs.Intake, logger)
	RegisterHistory(api, svcs.Intake, logger)
	RegisterModel(api, ModelDeps{
		Images:      svcs.Images,
		ImageURLTTL: imageURLTTL(svcs),
		Classify:    svcs.Classify,
		Intake:      svcs.Intake,
		Recommend:   svcs.Recommend,
		Logger:      logger,
	})
}

func imageURLTTL(svcs *services.Services) time.Duration {
	if svcs.Config == nil || svcs.Config.ImageURLTTL <= 0 {
		return 15 * time.Minute
	}
	return svcs.Config.ImageURLTTL
}
