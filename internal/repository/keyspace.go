package repository

// keyspace is the key prefix under which one entity type is stored.
//
//	<prefix>:<id>                   entity hash
//	<prefix>:list                   id list, most recent first
//	<prefix>:index:<field>:<value>  ids whose field equals value
type keyspace string

func globalKeyspace(entityName string) keyspace {
	return keyspace(entityName)
}

func userKeyspace(userID, entityName string) keyspace {
	return keyspace("user:" + userID + ":" + entityName)
}

func (k keyspace) entity(id string) string {
	return string(k) + ":" + id
}

func (k keyspace) list() string {
	return string(k) + ":list"
}

func (k keyspace) index(field, value string) string {
	return string(k) + ":index:" + field + ":" + value
}

func settingsKey(userID string) string {
	return "user:" + userID + ":settings"
}

func refreshTokenKey(userID string) string {
	return "refresh_token:" + userID
}

func blacklistKey(jti string) string {
	return "blacklist:" + jti
}
