package repos

import (
	"time"

	"github.com/jmoiron/sqlx"

	"shelfpos/internal/domain"
)

type UserRepo struct{ DB *sqlx.DB }

func NewUserRepo(db *sqlx.DB) *UserRepo { return &UserRepo{DB: db} }

func (r *UserRepo) ByEmail(email string) (*domain.Operator, error) {
	var u domain.Operator
	err := r.DB.Get(&u, r.DB.Rebind(`SELECT id,email,name,password_hash FROM users WHERE LOWER(email)=LOWER(?)`), email)
	if err != nil {
		return nil, err
	}
	return &u, nil
}

func (r *UserRepo) ByID(id string) (*domain.Operator, error) {
	var u domain.Operator
	err := r.DB.Get(&u, r.DB.Rebind(`SELECT id,email,name,password_hash FROM users WHERE id=?`), id)
	if err != nil {
		return nil, err
	}
	return &u, nil
}

// BindSession attaches the sid cookie value to an operator, creating the session row if needed.
func (r *UserRepo) BindSession(sid, userID string) error {
	now := time.Now().UnixNano()
	tx, err := r.DB.Beginx()
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	res, err := tx.Exec(tx.Rebind(`UPDATE sessions SET user_id=?, last_seen=? WHERE id=?`), userID, now, sid)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		if _, err := tx.Exec(tx.Rebind(`INSERT INTO sessions(id,user_id,created_at,last_seen) VALUES(?,?,?,?)`), sid, userID, now, now); err != nil {
			return err
		}
	}
	return tx.Commit()
}

func (r *UserRepo) SessionUser(sid string) (*domain.Operator, error) {
	var u domain.Operator
	err := r.DB.Get(&u, r.DB.Rebind(`
      SELECT u.id,u.email,u.name,u.password_hash
      FROM sessions s
      JOIN users u ON u.id=s.user_id
      WHERE s.id=?`), sid)
	if err != nil {
		return nil, err
	}
	return &u, nil
}

func (r *UserRepo) UnbindSession(sid string) error {
	_, err := r.DB.Exec(r.DB.Rebind(`UPDATE sessions SET user_id=NULL,last_seen=? WHERE id=?`), time.Now().UnixNano(), sid)
	return err
}
