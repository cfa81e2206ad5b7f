package store

const (
	createUser = `INSERT INTO users (uid, email, email_hash, email_verified, api_key, usage_limit, is_active, role, chat_count, chat_last_reset)
    VALUES ($1, $2, $3, $4, $5, $6, $7, $8, 0, NOW())
    RETURNING uid, email, email_verified, api_key, created_at, COALESCE(last_login_at, 'epoch'::timestamptz), usage_limit, is_active, role, chat_count, chat_last_reset;`

	getUserByUID = `SELECT uid, email, email_verified, api_key, created_at, COALESCE(last_login_at, 'epoch'::timestamptz), usage_limit, is_active, role, chat_count, chat_last_reset
    FROM users
    WHERE uid = $1;`

	findUserByEmailHash = `SELECT uid, email, email_verified, api_key, created_at, COALESCE(last_login_at, 'epoch'::timestamptz), usage_limit, is_active, role, chat_count, chat_last_reset
    FROM users
    WHERE email_hash = $1;`

	updateUserVerification = `UPDATE users
    SET email_verified = $2, is_active = $3
    WHERE uid = $1;`

	updateUserLastLogin = `UPDATE users
    SET last_login_at = NOW()
    WHERE uid = $1;`

	// chat_count = chat_count + 1 is evaluated inside the database, so
	// concurrent increments from the same user never race.
	incrementChatUsage = `UPDATE users
    SET chat_count = chat_count + 1
    WHERE uid = $1
    RETURNING chat_count;`

	resetChatUsage = `UPDATE users
    SET chat_count = 0, chat_last_reset = $2
    WHERE uid = $1;`

	createSession = `INSERT INTO sessions (id, user_id, created_at, expires_at, ip_address, user_agent, is_valid)
    VALUES ($1, $2, $3, $4, $5, $6, $7)
    RETURNING id, user_id, created_at, expires_at, ip_address, user_agent, is_valid;`

	getSessionByID = `SELECT id, user_id, created_at, expires_at, ip_address, user_agent, is_valid
    FROM sessions
    WHERE id = $1;`

	invalidateSession = `UPDATE sessions
    SET is_valid = FALSE
    WHERE id = $1;`

	sweepExpiredSessions = `UPDATE sessions
    SET is_valid = FALSE
    WHERE user_id = $1 AND is_valid = TRUE AND expires_at < $2;`
)
