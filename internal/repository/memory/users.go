package memory

import (
	"context"
	"fmt"
	"slices"
	"strings"

	"github.com/spec-kit/complaint-desk/internal/domain"
	"github.com/spec-kit/complaint-desk/internal/repository"
)

type userRepo struct{ handle }

func copyUser(u domain.User) *domain.User {
	u.SecondaryRole = clonePtr(u.SecondaryRole)
	return &u
}

func checkRoles(u *domain.User) error {
	if u.SecondaryRole != nil && *u.SecondaryRole == u.Role {
		return domain.ErrDuplicateRole
	}
	return nil
}

func (r userRepo) Create(_ context.Context, user *domain.User) error {
	defer r.lock()()
	if err := checkRoles(user); err != nil {
		return err
	}
	for _, existing := range r.db().users {
		if strings.EqualFold(existing.Email, user.Email) {
			return fmt.Errorf("memory: duplicate user email %q", user.Email)
		}
	}
	user.ID = r.newID()
	user.CreatedAt = r.now()
	user.UpdatedAt = user.CreatedAt
	r.db().users[user.ID] = *copyUser(*user)
	return nil
}

func (r userRepo) Update(_ context.Context, user *domain.User) error {
	defer r.lock()()
	stored, ok := r.db().users[user.ID]
	if !ok {
		return repository.ErrNotFound
	}
	if err := checkRoles(user); err != nil {
		return err
	}
	stored.FirstName = user.FirstName
	stored.LastName = user.LastName
	stored.Role = user.Role
	stored.SecondaryRole = clonePtr(user.SecondaryRole)
	stored.UpdatedAt = r.now()
	r.db().users[user.ID] = stored
	user.UpdatedAt = stored.UpdatedAt
	return nil
}

// Delete removes the user and cascades like the Postgres schema does.
func (r userRepo) Delete(_ context.Context, id string) error {
	defer r.lock()()
	d := r.db()
	if _, ok := d.users[id]; !ok {
		return repository.ErrNotFound
	}
	delete(d.users, id)
	delete(d.students, id)
	delete(d.lecturers, id)
	if admin, ok := d.admins[id]; ok {
		delete(d.admins, id)
		for cat, ids := range d.categoryAdmins {
			d.categoryAdmins[cat] = slices.DeleteFunc(ids, func(v string) bool { return v == admin.ID })
		}
	}
	for cid, c := range d.courses {
		if c.LecturerID == id {
			delete(d.courses, cid)
			for kid, k := range d.complaints {
				if k.CourseID != nil && *k.CourseID == cid {
					k.CourseID = nil
					d.complaints[kid] = k
				}
			}
		}
	}
	for kid, k := range d.complaints {
		if k.StudentID == id {
			deleteComplaint(d, kid)
		}
	}
	for aid, a := range d.assignments {
		if a.StaffID == id {
			delete(d.assignments, aid)
		}
	}
	for nid, n := range d.notifications {
		if n.RecipientID == id {
			delete(d.notifications, nid)
		}
	}
	return nil
}

func deleteComplaint(d *dataset, id string) {
	delete(d.complaints, id)
	for aid, a := range d.assignments {
		if a.ComplaintID == id {
			delete(d.assignments, aid)
		}
	}
	for rid, res := range d.resolutions {
		if res.ComplaintID == id {
			delete(d.resolutions, rid)
		}
	}
}

func (r userRepo) GetByID(_ context.Context, id string) (*domain.User, error) {
	defer r.lock()()
	u, ok := r.db().users[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return copyUser(u), nil
}

func (r userRepo) GetByEmail(_ context.Context, email string) (*domain.User, error) {
	defer r.lock()()
	for _, u := range r.db().users {
		if strings.EqualFold(u.Email, email) {
			return copyUser(u), nil
		}
	}
	return nil, repository.ErrNotFound
}
