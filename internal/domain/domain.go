package domain

import (
	"github.com/yungbote/analytics-database/internal/domain/assessments"
	"github.com/yungbote/analytics-database/internal/domain/blogs"
	"github.com/yungbote/analytics-database/internal/domain/boards"
	"github.com/yungbote/analytics-database/internal/domain/enrollments"
	"github.com/yungbote/analytics-database/internal/domain/identity"
	"github.com/yungbote/analytics-database/internal/domain/mixin"
	"github.com/yungbote/analytics-database/internal/domain/profiles"
	"github.com/yungbote/analytics-database/internal/domain/resource"
	"github.com/yungbote/analytics-database/internal/domain/rootcontext"
	"github.com/yungbote/analytics-database/internal/domain/search"
	"github.com/yungbote/analytics-database/internal/domain/social"
	"github.com/yungbote/analytics-database/internal/domain/surveys"
	"github.com/yungbote/analytics-database/internal/domain/tags"
	"github.com/yungbote/analytics-database/internal/domain/views"
)

type User = identity.User
type Session = identity.Session
type UserAgent = identity.UserAgent
type IPGeoLocation = identity.IPGeoLocation
type Location = identity.Location
type FileMimeType = identity.FileMimeType

type Course = rootcontext.Course
type Book = rootcontext.Book
type ContextID = rootcontext.ContextID

type Resource = resource.Resource

type ResourceView = views.ResourceView
type VideoEvent = views.VideoEvent
type VideoPlaySpeedEvent = views.VideoPlaySpeedEvent
type LTIAssetLaunch = views.LTIAssetLaunch
type SCORMPackageLaunch = views.SCORMPackageLaunch

type Forum = boards.Forum
type Topic = boards.Topic
type ForumComment = boards.ForumComment
type TopicView = boards.TopicView
type TopicLike = boards.TopicLike
type TopicFavorite = boards.TopicFavorite
type ForumCommentLike = boards.ForumCommentLike
type ForumCommentFavorite = boards.ForumCommentFavorite

type Blog = blogs.Blog
type BlogView = blogs.BlogView
type BlogComment = blogs.BlogComment
type BlogLike = blogs.BlogLike
type BlogFavorite = blogs.BlogFavorite
type BlogCommentLike = blogs.BlogCommentLike
type BlogCommentFavorite = blogs.BlogCommentFavorite

type AssignmentTaken = assessments.AssignmentTaken
type AssignmentDetail = assessments.AssignmentDetail
type AssignmentGrade = assessments.AssignmentGrade
type AssignmentDetailGrade = assessments.AssignmentDetailGrade
type AssignmentFeedback = assessments.AssignmentFeedback
type SelfAssessmentTaken = assessments.SelfAssessmentTaken
type SelfAssessmentDetail = assessments.SelfAssessmentDetail
type AssignmentView = assessments.AssignmentView
type SelfAssessmentView = assessments.SelfAssessmentView

type ChatInitiated = social.ChatInitiated
type ChatJoined = social.ChatJoined
type DynamicFriendsList = social.DynamicFriendsList
type DynamicFriendsListMemberAdded = social.DynamicFriendsListMemberAdded
type DynamicFriendsListMemberRemoved = social.DynamicFriendsListMemberRemoved
type FriendsList = social.FriendsList
type FriendsListMemberAdded = social.FriendsListMemberAdded
type FriendsListMemberRemoved = social.FriendsListMemberRemoved
type ContactAdded = social.ContactAdded
type ContactRemoved = social.ContactRemoved

type PollTaken = surveys.PollTaken
type SurveyTaken = surveys.SurveyTaken

type CourseCatalogView = enrollments.CourseCatalogView
type EnrollmentType = enrollments.EnrollmentType
type CourseEnrollment = enrollments.CourseEnrollment
type CourseDrop = enrollments.CourseDrop

type EntityProfileView = profiles.EntityProfileView
type EntityProfileActivityView = profiles.EntityProfileActivityView
type EntityProfileMembershipView = profiles.EntityProfileMembershipView

type Note = tags.Note
type NoteView = tags.NoteView
type NoteLike = tags.NoteLike
type NoteFavorite = tags.NoteFavorite
type Highlight = tags.Highlight
type Bookmark = tags.Bookmark

type SearchQuery = search.SearchQuery

func EncodeContextPath(path []string) string { return mixin.EncodeContextPath(path) }
func DecodeContextPath(s string) []string    { return mixin.DecodeContextPath(s) }

// AllModels lists every table in migration order: lookups and registries
// first, then the event families that reference them.
func AllModels() []any {
	return []any{
		&User{},
		&Session{},
		&UserAgent{},
		&Location{},
		&IPGeoLocation{},
		&FileMimeType{},

		&ContextID{},
		&Course{},
		&Book{},
		&Resource{},

		&ResourceView{},
		&VideoEvent{},
		&VideoPlaySpeedEvent{},
		&LTIAssetLaunch{},
		&SCORMPackageLaunch{},

		&Forum{},
		&Topic{},
		&ForumComment{},
		&TopicView{},
		&TopicLike{},
		&TopicFavorite{},
		&ForumCommentLike{},
		&ForumCommentFavorite{},

		&Blog{},
		&BlogView{},
		&BlogComment{},
		&BlogLike{},
		&BlogFavorite{},
		&BlogCommentLike{},
		&BlogCommentFavorite{},

		&AssignmentTaken{},
		&AssignmentDetail{},
		&AssignmentGrade{},
		&AssignmentDetailGrade{},
		&AssignmentFeedback{},
		&SelfAssessmentTaken{},
		&SelfAssessmentDetail{},
		&AssignmentView{},
		&SelfAssessmentView{},

		&ChatInitiated{},
		&ChatJoined{},
		&DynamicFriendsList{},
		&DynamicFriendsListMemberAdded{},
		&DynamicFriendsListMemberRemoved{},
		&FriendsList{},
		&FriendsListMemberAdded{},
		&FriendsListMemberRemoved{},
		&ContactAdded{},
		&ContactRemoved{},

		&PollTaken{},
		&SurveyTaken{},

		&CourseCatalogView{},
		&EnrollmentType{},
		&CourseEnrollment{},
		&CourseDrop{},

		&EntityProfileView{},
		&EntityProfileActivityView{},
		&EntityProfileMembershipView{},

		&Note{},
		&NoteView{},
		&NoteLike{},
		&NoteFavorite{},
		&Highlight{},
		&Bookmark{},

		&SearchQuery{},
	}
}
