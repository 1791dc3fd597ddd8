package services

import (
	"go.opentelemetry.io/otel/trace"
	"gorm.io/gorm"

	"github.com/yungbote/analytics-database/internal/data/aggregates"
	identityrepo "github.com/yungbote/analytics-database/internal/data/repos/identity"
	"github.com/yungbote/analytics-database/internal/data/repos/lookup"
	resourcerepo "github.com/yungbote/analytics-database/internal/data/repos/resource"
	rootcontextrepo "github.com/yungbote/analytics-database/internal/data/repos/rootcontext"
	"github.com/yungbote/analytics-database/internal/platform/dbctx"
	"github.com/yungbote/analytics-database/internal/platform/logger"
)

// Deps are the collaborators shared by every analytics service. Only DB is
// required; the rest default to the gorm transaction runner, no-op hooks,
// the global tracer and the store resolver.
type Deps struct {
	DB       *gorm.DB
	Log      *logger.Logger
	Runner   aggregates.TxRunner
	Hooks    aggregates.Hooks
	Tracer   trace.Tracer
	Resolver Resolver
}

// core holds the registries every event family resolves through.
type core struct {
	db       *gorm.DB
	log      *logger.Logger
	base     aggregates.BaseDeps
	resolver Resolver

	userRepo       identityrepo.UserRepo
	sessionRepo    identityrepo.SessionRepo
	locationRepo   identityrepo.LocationRepo
	contextRepo    rootcontextrepo.RootContextRepo
	resourceRepo   resourcerepo.ResourceRepo
	userAgentRepo  lookup.LookupRepo
	mimeTypeRepo   lookup.LookupRepo
	enrollTypeRepo lookup.LookupRepo
}

func newCore(deps Deps) *core {
	log := deps.Log
	if log == nil {
		log = logger.Nop()
	}
	resolver := deps.Resolver
	if resolver == nil {
		resolver = NewStoreResolver(deps.DB)
	}
	return &core{
		db:  deps.DB,
		log: log,
		base: aggregates.BaseDeps{
			DB:     deps.DB,
			Log:    log,
			Runner: deps.Runner,
			Hooks:  deps.Hooks,
			Tracer: deps.Tracer,
		},
		resolver:       resolver,
		userRepo:       identityrepo.NewUserRepo(deps.DB, log),
		sessionRepo:    identityrepo.NewSessionRepo(deps.DB, log),
		locationRepo:   identityrepo.NewLocationRepo(deps.DB, log),
		contextRepo:    rootcontextrepo.NewRootContextRepo(deps.DB, log),
		resourceRepo:   resourcerepo.NewResourceRepo(deps.DB, log),
		userAgentRepo:  lookup.NewUserAgentRepo(deps.DB, log),
		mimeTypeRepo:   lookup.NewMimeTypeRepo(deps.DB, log),
		enrollTypeRepo: lookup.NewEnrollmentTypeRepo(deps.DB, log),
	}
}

// write runs fn as the unit of work op, joining the caller's transaction
// when dbc carries one.
func (c *core) write(dbc dbctx.Context, op string, fn func(dbc dbctx.Context) error) error {
	return aggregates.ExecuteWrite(dbc, c.base, op, fn)
}

// Analytics bundles the registries and event-family services over one
// database handle.
type Analytics struct {
	Users        UserService
	RootContexts RootContextService
	Resources    ResourceService
	Sessions     SessionService
	Lookups      LookupService
	Views        ResourceViewService
	Boards       BoardService
	Blogs        BlogService
	Assessments  AssessmentService
	Social       SocialService
	Surveys      SurveyService
	Enrollments  EnrollmentService
	Profiles     ProfileViewService
	Tags         TagService
	Search       SearchService
}

func New(deps Deps) *Analytics {
	c := newCore(deps)
	return &Analytics{
		Users:        &userService{core: c, log: c.log.With("service", "UserService")},
		RootContexts: &rootContextService{core: c, log: c.log.With("service", "RootContextService")},
		Resources:    &resourceService{core: c, log: c.log.With("service", "ResourceService")},
		Sessions:     &sessionService{core: c, log: c.log.With("service", "SessionService")},
		Lookups:      &lookupService{core: c},
		Views:        newResourceViewService(c),
		Boards:       newBoardService(c),
		Blogs:        newBlogService(c),
		Assessments:  newAssessmentService(c),
		Social:       newSocialService(c),
		Surveys:      newSurveyService(c),
		Enrollments:  newEnrollmentService(c),
		Profiles:     newProfileViewService(c),
		Tags:         newTagService(c),
		Search:       newSearchService(c),
	}
}
