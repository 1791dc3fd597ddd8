package ingest

import (
	"time"

	"github.com/yungbote/analytics-database/internal/platform/dbctx"
	"github.com/yungbote/analytics-database/internal/services"
)

// Payloads for operations that take more than one argument. Single-event
// operations decode straight into their services type.

type deletion struct {
	At time.Time `yaml:"at" validate:"required"`
	ID int64     `yaml:"id" validate:"required"`
}

type contextDeletion struct {
	At time.Time `yaml:"at"`
	ID string    `yaml:"id" validate:"required"`
}

type rating struct {
	Actor services.Actor `yaml:"actor"`
	ID    int64          `yaml:"id" validate:"required"`
	Delta int            `yaml:"delta" validate:"oneof=-1 1"`
}

type flag struct {
	ID      int64 `yaml:"id" validate:"required"`
	Flagged bool  `yaml:"flagged"`
}

type research struct {
	ID    int64 `yaml:"id" validate:"required"`
	Allow bool  `yaml:"allow"`
}

type sessionStart struct {
	User      services.UserRef `yaml:"user"`
	IP        string           `yaml:"ip_addr"`
	UserAgent string           `yaml:"user_agent"`
	Start     time.Time        `yaml:"start" validate:"required"`
}

type sessionEnd struct {
	SessionID int64     `yaml:"session_id" validate:"required"`
	End       time.Time `yaml:"end" validate:"required"`
}

type location struct {
	User        services.UserRef        `yaml:"user"`
	IP          string                  `yaml:"ip_addr" validate:"required"`
	CountryCode string                  `yaml:"country_code"`
	Location    *services.LocationInput `yaml:"location"`
}

type forumEvent struct {
	Actor services.Actor    `yaml:"actor"`
	Forum services.ForumRef `yaml:"forum"`
}

type topicEvent struct {
	Actor services.Actor    `yaml:"actor"`
	Topic services.TopicRef `yaml:"topic"`
}

type forumCommentEvent struct {
	Actor   services.Actor      `yaml:"actor"`
	Topic   services.TopicRef   `yaml:"topic"`
	Comment services.CommentRef `yaml:"comment"`
}

type blogEvent struct {
	Actor services.Actor   `yaml:"actor"`
	Blog  services.BlogRef `yaml:"blog"`
}

type blogCommentEvent struct {
	Actor   services.Actor      `yaml:"actor"`
	Blog    services.BlogRef    `yaml:"blog"`
	Comment services.CommentRef `yaml:"comment"`
}

type assignmentEvent struct {
	Actor      services.Actor         `yaml:"actor"`
	Course     services.ContextRef    `yaml:"course"`
	Submission services.SubmissionRef `yaml:"submission"`
}

type gradeEvent struct {
	Actor      services.Actor         `yaml:"actor"`
	Grader     services.UserRef       `yaml:"grader"`
	Value      string                 `yaml:"value"`
	Submission services.SubmissionRef `yaml:"submission"`
}

type feedbackEvent struct {
	Actor      services.Actor         `yaml:"actor"`
	Submission services.SubmissionRef `yaml:"submission"`
	Feedback   services.FeedbackRef   `yaml:"feedback"`
}

type selfAssessmentEvent struct {
	Actor      services.Actor             `yaml:"actor"`
	Course     services.ContextRef        `yaml:"course"`
	Submission services.SelfAssessmentRef `yaml:"submission"`
}

type groupEvent struct {
	Actor services.Actor    `yaml:"actor"`
	Group services.GroupRef `yaml:"group"`
}

type groupUpdate struct {
	At    time.Time         `yaml:"at" validate:"required"`
	Group services.GroupRef `yaml:"group"`
}

type joinEvent struct {
	Actor services.Actor `yaml:"actor"`
	ID    int64          `yaml:"id" validate:"required"`
}

type memberEvent struct {
	Actor  services.Actor   `yaml:"actor"`
	ID     int64            `yaml:"id" validate:"required"`
	Member services.UserRef `yaml:"member"`
}

type contactsEvent struct {
	Actor    services.Actor     `yaml:"actor"`
	Contacts []services.UserRef `yaml:"contacts" validate:"dive"`
}

type inquiryEvent struct {
	Actor   services.Actor      `yaml:"actor"`
	Course  services.ContextRef `yaml:"course"`
	Inquiry services.InquiryRef `yaml:"inquiry"`
}

type enrollmentEvent struct {
	Actor  services.Actor      `yaml:"actor"`
	Course services.ContextRef `yaml:"course"`
	Type   string              `yaml:"type"`
}

type noteEvent struct {
	Actor services.Actor   `yaml:"actor"`
	Note  services.NoteRef `yaml:"note"`
}

type annotationEvent struct {
	Actor      services.Actor         `yaml:"actor"`
	Annotation services.AnnotationRef `yaml:"annotation"`
}

// register lists every replayable event kind.
func register() map[string]handler {
	return map[string]handler{
		"user.created": on(func(dbc dbctx.Context, a *services.Analytics, p services.UserRef) error {
			_, err := a.Users.GetOrCreate(dbc, p)
			return err
		}),
		"user.deleted": on(func(dbc dbctx.Context, a *services.Analytics, p deletion) error {
			return a.Users.DeleteEntity(dbc, p.ID)
		}),
		"user.research_updated": on(func(dbc dbctx.Context, a *services.Analytics, p research) error {
			return a.Users.UpdateResearch(dbc, p.ID, p.Allow)
		}),
		"context.created": on(func(dbc dbctx.Context, a *services.Analytics, p services.ContextRef) error {
			_, err := a.RootContexts.ID(dbc, p, true)
			return err
		}),
		"context.deleted": on(func(dbc dbctx.Context, a *services.Analytics, p contextDeletion) error {
			return a.RootContexts.Delete(dbc, p.ID)
		}),
		"session.started": on(func(dbc dbctx.Context, a *services.Analytics, p sessionStart) error {
			_, err := a.Sessions.Create(dbc, p.User, p.IP, p.UserAgent, p.Start)
			return err
		}),
		"session.ended": on(func(dbc dbctx.Context, a *services.Analytics, p sessionEnd) error {
			_, err := a.Sessions.End(dbc, p.SessionID, p.End)
			return err
		}),
		"location.recorded": on(func(dbc dbctx.Context, a *services.Analytics, p location) error {
			_, err := a.Sessions.RecordLocation(dbc, p.User, p.IP, p.CountryCode, p.Location)
			return err
		}),

		"resource.viewed": on(func(dbc dbctx.Context, a *services.Analytics, p services.ViewEvent) error {
			_, err := a.Views.CreateResourceView(dbc, p)
			return err
		}),
		"video.event": on(func(dbc dbctx.Context, a *services.Analytics, p services.VideoEvent) error {
			_, err := a.Views.CreateVideoEvent(dbc, p)
			return err
		}),
		"video.play_speed": on(func(dbc dbctx.Context, a *services.Analytics, p services.PlaySpeedEvent) error {
			_, err := a.Views.CreatePlaySpeedEvent(dbc, p)
			return err
		}),
		"lti.launched": on(func(dbc dbctx.Context, a *services.Analytics, p services.ViewEvent) error {
			_, err := a.Views.CreateLTILaunch(dbc, p)
			return err
		}),
		"scorm.launched": on(func(dbc dbctx.Context, a *services.Analytics, p services.ViewEvent) error {
			_, err := a.Views.CreateSCORMLaunch(dbc, p)
			return err
		}),

		"forum.created": on(func(dbc dbctx.Context, a *services.Analytics, p forumEvent) error {
			_, err := a.Boards.CreateForum(dbc, p.Actor, p.Forum)
			return err
		}),
		"forum.deleted": on(func(dbc dbctx.Context, a *services.Analytics, p deletion) error {
			return a.Boards.DeleteForum(dbc, p.At, p.ID)
		}),
		"topic.created": on(func(dbc dbctx.Context, a *services.Analytics, p topicEvent) error {
			_, err := a.Boards.CreateTopic(dbc, p.Actor, p.Topic)
			return err
		}),
		"topic.deleted": on(func(dbc dbctx.Context, a *services.Analytics, p deletion) error {
			return a.Boards.DeleteTopic(dbc, p.At, p.ID)
		}),
		"topic.viewed": on(func(dbc dbctx.Context, a *services.Analytics, p services.TopicViewEvent) error {
			_, err := a.Boards.CreateTopicView(dbc, p)
			return err
		}),
		"topic.liked": on(func(dbc dbctx.Context, a *services.Analytics, p rating) error {
			_, err := a.Boards.LikeTopic(dbc, p.Actor, p.ID, p.Delta)
			return err
		}),
		"topic.favorited": on(func(dbc dbctx.Context, a *services.Analytics, p rating) error {
			_, err := a.Boards.FavoriteTopic(dbc, p.Actor, p.ID, p.Delta)
			return err
		}),
		"topic.flagged": on(func(dbc dbctx.Context, a *services.Analytics, p flag) error {
			return a.Boards.FlagTopic(dbc, p.ID, p.Flagged)
		}),
		"forum_comment.created": on(func(dbc dbctx.Context, a *services.Analytics, p forumCommentEvent) error {
			_, err := a.Boards.CreateComment(dbc, p.Actor, p.Topic, p.Comment)
			return err
		}),
		"forum_comment.deleted": on(func(dbc dbctx.Context, a *services.Analytics, p deletion) error {
			return a.Boards.DeleteComment(dbc, p.At, p.ID)
		}),
		"forum_comment.liked": on(func(dbc dbctx.Context, a *services.Analytics, p rating) error {
			_, err := a.Boards.LikeComment(dbc, p.Actor, p.ID, p.Delta)
			return err
		}),
		"forum_comment.favorited": on(func(dbc dbctx.Context, a *services.Analytics, p rating) error {
			_, err := a.Boards.FavoriteComment(dbc, p.Actor, p.ID, p.Delta)
			return err
		}),
		"forum_comment.flagged": on(func(dbc dbctx.Context, a *services.Analytics, p flag) error {
			return a.Boards.FlagComment(dbc, p.ID, p.Flagged)
		}),

		"blog.created": on(func(dbc dbctx.Context, a *services.Analytics, p blogEvent) error {
			_, err := a.Blogs.CreateBlog(dbc, p.Actor, p.Blog)
			return err
		}),
		"blog.deleted": on(func(dbc dbctx.Context, a *services.Analytics, p deletion) error {
			return a.Blogs.DeleteBlog(dbc, p.At, p.ID)
		}),
		"blog.viewed": on(func(dbc dbctx.Context, a *services.Analytics, p services.BlogViewEvent) error {
			_, err := a.Blogs.CreateBlogView(dbc, p)
			return err
		}),
		"blog.liked": on(func(dbc dbctx.Context, a *services.Analytics, p rating) error {
			_, err := a.Blogs.LikeBlog(dbc, p.Actor, p.ID, p.Delta)
			return err
		}),
		"blog.favorited": on(func(dbc dbctx.Context, a *services.Analytics, p rating) error {
			_, err := a.Blogs.FavoriteBlog(dbc, p.Actor, p.ID, p.Delta)
			return err
		}),
		"blog.flagged": on(func(dbc dbctx.Context, a *services.Analytics, p flag) error {
			return a.Blogs.FlagBlog(dbc, p.ID, p.Flagged)
		}),
		"blog_comment.created": on(func(dbc dbctx.Context, a *services.Analytics, p blogCommentEvent) error {
			_, err := a.Blogs.CreateComment(dbc, p.Actor, p.Blog, p.Comment)
			return err
		}),
		"blog_comment.deleted": on(func(dbc dbctx.Context, a *services.Analytics, p deletion) error {
			return a.Blogs.DeleteComment(dbc, p.At, p.ID)
		}),
		"blog_comment.liked": on(func(dbc dbctx.Context, a *services.Analytics, p rating) error {
			_, err := a.Blogs.LikeComment(dbc, p.Actor, p.ID, p.Delta)
			return err
		}),
		"blog_comment.favorited": on(func(dbc dbctx.Context, a *services.Analytics, p rating) error {
			_, err := a.Blogs.FavoriteComment(dbc, p.Actor, p.ID, p.Delta)
			return err
		}),
		"blog_comment.flagged": on(func(dbc dbctx.Context, a *services.Analytics, p flag) error {
			return a.Blogs.FlagComment(dbc, p.ID, p.Flagged)
		}),

		"assignment.taken": on(func(dbc dbctx.Context, a *services.Analytics, p assignmentEvent) error {
			_, err := a.Assessments.CreateAssignmentTaken(dbc, p.Actor, p.Course, p.Submission)
			return err
		}),
		"assignment.graded": on(func(dbc dbctx.Context, a *services.Analytics, p gradeEvent) error {
			_, err := a.Assessments.GradeSubmission(dbc, p.Actor, p.Grader, p.Value, p.Submission)
			return err
		}),
		"assignment.feedback": on(func(dbc dbctx.Context, a *services.Analytics, p feedbackEvent) error {
			_, err := a.Assessments.CreateSubmissionFeedback(dbc, p.Actor, p.Submission, p.Feedback)
			return err
		}),
		"assignment.feedback_deleted": on(func(dbc dbctx.Context, a *services.Analytics, p deletion) error {
			return a.Assessments.DeleteFeedback(dbc, p.At, p.ID)
		}),
		"assignment.viewed": on(func(dbc dbctx.Context, a *services.Analytics, p services.AssessmentViewEvent) error {
			_, err := a.Assessments.CreateAssignmentView(dbc, p)
			return err
		}),
		"self_assessment.taken": on(func(dbc dbctx.Context, a *services.Analytics, p selfAssessmentEvent) error {
			_, err := a.Assessments.CreateSelfAssessmentTaken(dbc, p.Actor, p.Course, p.Submission)
			return err
		}),
		"self_assessment.viewed": on(func(dbc dbctx.Context, a *services.Analytics, p services.AssessmentViewEvent) error {
			_, err := a.Assessments.CreateSelfAssessmentView(dbc, p)
			return err
		}),

		"chat.created": on(func(dbc dbctx.Context, a *services.Analytics, p groupEvent) error {
			_, err := a.Social.CreateChat(dbc, p.Actor, p.Group)
			return err
		}),
		"chat.joined": on(func(dbc dbctx.Context, a *services.Analytics, p joinEvent) error {
			_, err := a.Social.JoinChat(dbc, p.Actor, p.ID)
			return err
		}),
		"chat.updated": on(func(dbc dbctx.Context, a *services.Analytics, p groupUpdate) error {
			_, err := a.Social.UpdateChat(dbc, p.At, p.Group)
			return err
		}),
		"dfl.created": on(func(dbc dbctx.Context, a *services.Analytics, p groupEvent) error {
			_, err := a.Social.CreateDynamicFriendsList(dbc, p.Actor, p.Group)
			return err
		}),
		"dfl.removed": on(func(dbc dbctx.Context, a *services.Analytics, p deletion) error {
			return a.Social.RemoveDynamicFriendsList(dbc, p.At, p.ID)
		}),
		"dfl.member_added": on(func(dbc dbctx.Context, a *services.Analytics, p memberEvent) error {
			_, err := a.Social.AddDynamicFriendsListMember(dbc, p.Actor, p.ID, p.Member)
			return err
		}),
		"dfl.member_removed": on(func(dbc dbctx.Context, a *services.Analytics, p memberEvent) error {
			_, err := a.Social.RemoveDynamicFriendsListMember(dbc, p.Actor, p.ID, p.Member)
			return err
		}),
		"friends_list.created": on(func(dbc dbctx.Context, a *services.Analytics, p groupEvent) error {
			_, err := a.Social.CreateFriendsList(dbc, p.Actor, p.Group)
			return err
		}),
		"friends_list.removed": on(func(dbc dbctx.Context, a *services.Analytics, p deletion) error {
			return a.Social.RemoveFriendsList(dbc, p.At, p.ID)
		}),
		"friends_list.updated": on(func(dbc dbctx.Context, a *services.Analytics, p groupEvent) error {
			_, err := a.Social.UpdateFriendsList(dbc, p.Actor, p.Group)
			return err
		}),
		"contacts.updated": on(func(dbc dbctx.Context, a *services.Analytics, p contactsEvent) error {
			_, err := a.Social.UpdateContacts(dbc, p.Actor, p.Contacts)
			return err
		}),

		"poll.taken": on(func(dbc dbctx.Context, a *services.Analytics, p inquiryEvent) error {
			_, err := a.Surveys.CreatePollTaken(dbc, p.Actor, p.Course, p.Inquiry)
			return err
		}),
		"survey.taken": on(func(dbc dbctx.Context, a *services.Analytics, p inquiryEvent) error {
			_, err := a.Surveys.CreateSurveyTaken(dbc, p.Actor, p.Course, p.Inquiry)
			return err
		}),

		"catalog.viewed": on(func(dbc dbctx.Context, a *services.Analytics, p services.CatalogViewEvent) error {
			_, err := a.Enrollments.CreateCatalogView(dbc, p)
			return err
		}),
		"enrollment.created": on(func(dbc dbctx.Context, a *services.Analytics, p enrollmentEvent) error {
			_, err := a.Enrollments.CreateEnrollment(dbc, p.Actor, p.Course, p.Type)
			return err
		}),
		"enrollment.dropped": on(func(dbc dbctx.Context, a *services.Analytics, p enrollmentEvent) error {
			_, err := a.Enrollments.CreateDrop(dbc, p.Actor, p.Course)
			return err
		}),

		"profile.viewed": on(func(dbc dbctx.Context, a *services.Analytics, p services.ProfileViewEvent) error {
			_, err := a.Profiles.CreateProfileView(dbc, p)
			return err
		}),
		"profile_activity.viewed": on(func(dbc dbctx.Context, a *services.Analytics, p services.ProfileViewEvent) error {
			_, err := a.Profiles.CreateProfileActivityView(dbc, p)
			return err
		}),
		"profile_membership.viewed": on(func(dbc dbctx.Context, a *services.Analytics, p services.ProfileViewEvent) error {
			_, err := a.Profiles.CreateProfileMembershipView(dbc, p)
			return err
		}),

		"note.created": on(func(dbc dbctx.Context, a *services.Analytics, p noteEvent) error {
			_, err := a.Tags.CreateNote(dbc, p.Actor, p.Note)
			return err
		}),
		"note.deleted": on(func(dbc dbctx.Context, a *services.Analytics, p deletion) error {
			return a.Tags.DeleteNote(dbc, p.At, p.ID)
		}),
		"note.viewed": on(func(dbc dbctx.Context, a *services.Analytics, p services.NoteViewEvent) error {
			_, err := a.Tags.CreateNoteView(dbc, p)
			return err
		}),
		"note.liked": on(func(dbc dbctx.Context, a *services.Analytics, p rating) error {
			_, err := a.Tags.LikeNote(dbc, p.Actor, p.ID, p.Delta)
			return err
		}),
		"note.favorited": on(func(dbc dbctx.Context, a *services.Analytics, p rating) error {
			_, err := a.Tags.FavoriteNote(dbc, p.Actor, p.ID, p.Delta)
			return err
		}),
		"note.flagged": on(func(dbc dbctx.Context, a *services.Analytics, p flag) error {
			return a.Tags.FlagNote(dbc, p.ID, p.Flagged)
		}),
		"highlight.created": on(func(dbc dbctx.Context, a *services.Analytics, p annotationEvent) error {
			_, err := a.Tags.CreateHighlight(dbc, p.Actor, p.Annotation)
			return err
		}),
		"highlight.deleted": on(func(dbc dbctx.Context, a *services.Analytics, p deletion) error {
			return a.Tags.DeleteHighlight(dbc, p.At, p.ID)
		}),
		"bookmark.created": on(func(dbc dbctx.Context, a *services.Analytics, p annotationEvent) error {
			_, err := a.Tags.CreateBookmark(dbc, p.Actor, p.Annotation)
			return err
		}),
		"bookmark.deleted": on(func(dbc dbctx.Context, a *services.Analytics, p deletion) error {
			return a.Tags.DeleteBookmark(dbc, p.At, p.ID)
		}),

		"search.query": on(func(dbc dbctx.Context, a *services.Analytics, p services.SearchEvent) error {
			_, err := a.Search.CreateSearchQuery(dbc, p)
			return err
		}),
	}
}
