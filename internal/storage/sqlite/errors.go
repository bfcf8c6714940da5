package sqlite

import "errors"

var (
	ErrUserNotFound     = errors.New("user not found")
	ErrUserExists       = errors.New("username already taken")
	ErrUserOwnsProjects = errors.New("user still owns projects")
	ErrProjectNotFound  = errors.New("project not found")
	ErrProjectKeyExists = errors.New("project key already exists")
	ErrMemberNotFound   = errors.New("project member not found")
	ErrMemberExists     = errors.New("user is already a project member")
	ErrStatusNotFound   = errors.New("issue status not found")
	ErrSprintNotFound   = errors.New("sprint not found")
	ErrIssueNotFound    = errors.New("issue not found")
	ErrCommentNotFound  = errors.New("comment not found")
)
