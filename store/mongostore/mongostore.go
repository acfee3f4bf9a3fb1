// Package mongostore persists SitePunch data in MongoDB.
//
// Open entries carry open: true. A partial unique index on employeeId over
// those documents allows one open entry per employee; closing an entry flips
// the flag in the same update that records clockOut.
package mongostore

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"

	"sitepunch.app/sitepunch/admin"
	"sitepunch.app/sitepunch/model"
	"sitepunch.app/sitepunch/timeclock"
)

const DefaultDatabase = "sitepunch"

const (
	companies   = "companies"
	employees   = "employees"
	admins      = "admins"
	timeEntries = "timeEntries"
)

type Store struct {
	client *mongo.Client
	db     *mongo.Database
}

// Open connects to uri and pings the primary. database defaults to
// DefaultDatabase.
func Open(ctx context.Context, uri, database string) (*Store, error) {
	client, err := mongo.Connect(options.Client().ApplyURI(uri))
	if err != nil {
		return nil, fmt.Errorf("connect: %w", err)
	}

	pingCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx, nil); err != nil {
		client.Disconnect(context.Background())
		return nil, fmt.Errorf("ping: %w", err)
	}

	if database == "" {
		database = DefaultDatabase
	}
	return &Store{client: client, db: client.Database(database)}, nil
}

// Migrate creates the indexes the store relies on. It is idempotent.
func (s *Store) Migrate(ctx context.Context) error {
	indexes := map[string][]mongo.IndexModel{
		timeEntries: {
			{
				Keys: bson.D{{Key: "employeeId", Value: 1}},
				Options: options.Index().
					SetName("one_open_entry").
					SetUnique(true).
					SetPartialFilterExpression(bson.M{"open": true}),
			},
			{Keys: bson.D{{Key: "companyId", Value: 1}, {Key: "employeeId", Value: 1}, {Key: "clockIn", Value: -1}}},
		},
		companies: {
			{Keys: bson.D{{Key: "code", Value: 1}}, Options: options.Index().SetUnique(true)},
		},
		employees: {
			{Keys: bson.D{{Key: "companyId", Value: 1}, {Key: "employeeId", Value: 1}}, Options: options.Index().SetUnique(true)},
		},
		admins: {
			{Keys: bson.D{{Key: "email", Value: 1}}, Options: options.Index().SetUnique(true)},
		},
	}
	for coll, models := range indexes {
		if _, err := s.db.Collection(coll).Indexes().CreateMany(ctx, models); err != nil {
			return fmt.Errorf("create indexes on %s: %w", coll, err)
		}
	}
	return nil
}

func (s *Store) Close(ctx context.Context) error {
	return s.client.Disconnect(ctx)
}

func scoped(scope timeclock.Scope) bson.M {
	return bson.M{"companyId": scope.CompanyID, "employeeId": scope.EmployeeID}
}

func between(filter bson.M, from, to *time.Time) bson.M {
	rng := bson.M{}
	if from != nil {
		rng["$gte"] = *from
	}
	if to != nil {
		rng["$lte"] = *to
	}
	if len(rng) > 0 {
		filter["clockIn"] = rng
	}
	return filter
}

func (s *Store) InsertOpen(ctx context.Context, entry *model.TimeEntry) error {
	entry.Open = true
	_, err := s.db.Collection(timeEntries).InsertOne(ctx, entry)
	if mongo.IsDuplicateKeyError(err) {
		return timeclock.ErrAlreadyClockedIn
	}
	return err
}

func (s *Store) FindOpen(ctx context.Context, scope timeclock.Scope) (*model.TimeEntry, error) {
	filter := scoped(scope)
	filter["open"] = true
	return findOne[model.TimeEntry](ctx, s.db.Collection(timeEntries), filter)
}

func (s *Store) CloseEntry(ctx context.Context, scope timeclock.Scope, entryID string, closing timeclock.Closing) error {
	filter := scoped(scope)
	filter["_id"] = entryID
	filter["open"] = true

	res, err := s.db.Collection(timeEntries).UpdateOne(ctx, filter, bson.M{"$set": bson.M{
		"clockOut":         closing.ClockOut,
		"clockOutLocation": closing.Location,
		"duration":         closing.Duration,
		"open":             false,
	}})
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return timeclock.ErrNotClockedIn
	}
	return nil
}

func (s *Store) List(ctx context.Context, scope timeclock.Scope, opts timeclock.ListOptions) ([]model.TimeEntry, error) {
	return s.findEntries(ctx, between(scoped(scope), opts.From, opts.To), opts.Limit)
}

func (s *Store) ListCompanyEntries(ctx context.Context, companyID string, filter admin.EntryFilter) ([]model.TimeEntry, error) {
	q := between(bson.M{"companyId": companyID}, filter.From, filter.To)
	if filter.EmployeeID != "" {
		q["employeeId"] = filter.EmployeeID
	}
	return s.findEntries(ctx, q, filter.Limit)
}

func (s *Store) findEntries(ctx context.Context, filter bson.M, limit int) ([]model.TimeEntry, error) {
	opts := options.Find().SetSort(bson.D{{Key: "clockIn", Value: -1}})
	if limit > 0 {
		opts.SetLimit(int64(limit))
	}
	return findMany[model.TimeEntry](ctx, s.db.Collection(timeEntries), filter, opts)
}

func (s *Store) CountOpenEntries(ctx context.Context, companyID string) (int64, error) {
	return s.db.Collection(timeEntries).CountDocuments(ctx, bson.M{"companyId": companyID, "open": true})
}

func (s *Store) ListEmployees(ctx context.Context, companyID string) ([]model.Employee, error) {
	opts := options.Find().SetSort(bson.D{{Key: "lastName", Value: 1}, {Key: "firstName", Value: 1}})
	return findMany[model.Employee](ctx, s.db.Collection(employees), bson.M{"companyId": companyID}, opts)
}

func (s *Store) CreateEmployee(ctx context.Context, employee *model.Employee) error {
	return insert(ctx, s.db.Collection(employees), employee)
}

func (s *Store) UpdateEmployee(ctx context.Context, companyID, id string, patch model.EmployeePatch) error {
	set := bson.M{}
	if patch.FirstName != nil {
		set["firstName"] = *patch.FirstName
	}
	if patch.LastName != nil {
		set["lastName"] = *patch.LastName
	}
	if patch.Email != nil {
		set["email"] = *patch.Email
	}
	if patch.Phone != nil {
		set["phone"] = *patch.Phone
	}
	if patch.Department != nil {
		set["department"] = *patch.Department
	}
	if patch.PinHash != nil {
		set["pinHash"] = *patch.PinHash
	}
	if patch.Active != nil {
		set["active"] = *patch.Active
	}
	return updateExisting(ctx, s.db.Collection(employees), bson.M{"_id": id, "companyId": companyID}, set)
}

func (s *Store) GetCompany(ctx context.Context, companyID string) (*model.Company, error) {
	return findOne[model.Company](ctx, s.db.Collection(companies), bson.M{"_id": companyID})
}

func (s *Store) ListCompanies(ctx context.Context) ([]model.Company, error) {
	opts := options.Find().SetSort(bson.D{{Key: "code", Value: 1}})
	return findMany[model.Company](ctx, s.db.Collection(companies), bson.M{}, opts)
}

func (s *Store) UpdateCompany(ctx context.Context, companyID string, patch model.SettingsPatch) error {
	set := bson.M{}
	if patch.Name != nil {
		set["name"] = *patch.Name
	}
	if patch.Timezone != nil {
		set["settings.timezone"] = *patch.Timezone
	}
	if patch.OvertimeThreshold != nil {
		set["settings.overtimeThreshold"] = *patch.OvertimeThreshold
	}
	if patch.PayPeriodType != nil {
		set["settings.payPeriodType"] = *patch.PayPeriodType
	}
	if len(set) > 0 {
		set["updatedAt"] = time.Now().UTC()
	}
	return updateExisting(ctx, s.db.Collection(companies), bson.M{"_id": companyID}, set)
}

func (s *Store) ListAdmins(ctx context.Context, companyID string) ([]model.Admin, error) {
	opts := options.Find().SetSort(bson.D{{Key: "email", Value: 1}})
	return findMany[model.Admin](ctx, s.db.Collection(admins), bson.M{"companyId": companyID, "active": true}, opts)
}

func (s *Store) FindCompanyByCode(ctx context.Context, code string) (*model.Company, error) {
	return findOne[model.Company](ctx, s.db.Collection(companies), bson.M{"code": code})
}

func (s *Store) FindEmployeeByNumber(ctx context.Context, companyID, number string) (*model.Employee, error) {
	return findOne[model.Employee](ctx, s.db.Collection(employees), bson.M{"companyId": companyID, "employeeId": number})
}

func (s *Store) FindEmployee(ctx context.Context, companyID, id string) (*model.Employee, error) {
	return findOne[model.Employee](ctx, s.db.Collection(employees), bson.M{"_id": id, "companyId": companyID})
}

func (s *Store) FindAdminByEmail(ctx context.Context, email string) (*model.Admin, error) {
	return findOne[model.Admin](ctx, s.db.Collection(admins), bson.M{"email": email})
}

func (s *Store) FindAdmin(ctx context.Context, companyID, id string) (*model.Admin, error) {
	return findOne[model.Admin](ctx, s.db.Collection(admins), bson.M{"_id": id, "companyId": companyID})
}

func (s *Store) RecordEmployeeLogin(ctx context.Context, id string, at time.Time) error {
	_, err := s.db.Collection(employees).UpdateByID(ctx, id, bson.M{"$set": bson.M{"lastLogin": at}})
	return err
}

func (s *Store) RecordAdminLogin(ctx context.Context, id string, at time.Time) error {
	_, err := s.db.Collection(admins).UpdateByID(ctx, id, bson.M{"$set": bson.M{"lastLogin": at}})
	return err
}

func (s *Store) CreateCompany(ctx context.Context, company *model.Company) error {
	now := time.Now().UTC()
	if company.CreatedAt.IsZero() {
		company.CreatedAt = now
	}
	if company.UpdatedAt.IsZero() {
		company.UpdatedAt = now
	}
	return insert(ctx, s.db.Collection(companies), company)
}

func (s *Store) CreateAdmin(ctx context.Context, a *model.Admin) error {
	if a.CreatedAt.IsZero() {
		a.CreatedAt = time.Now().UTC()
	}
	return insert(ctx, s.db.Collection(admins), a)
}

func insert(ctx context.Context, coll *mongo.Collection, doc interface{}) error {
	_, err := coll.InsertOne(ctx, doc)
	if mongo.IsDuplicateKeyError(err) {
		return model.ErrDuplicate
	}
	return err
}

// findOne returns (nil, nil) when no document matches.
func findOne[T any](ctx context.Context, coll *mongo.Collection, filter bson.M) (*T, error) {
	var out T
	err := coll.FindOne(ctx, filter).Decode(&out)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &out, nil
}

func findMany[T any](ctx context.Context, coll *mongo.Collection, filter bson.M, opts ...options.Lister[options.FindOptions]) ([]T, error) {
	cursor, err := coll.Find(ctx, filter, opts...)
	if err != nil {
		return nil, err
	}
	out := []T{}
	if err := cursor.All(ctx, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func updateExisting(ctx context.Context, coll *mongo.Collection, filter bson.M, set bson.M) error {
	if len(set) == 0 {
		n, err := coll.CountDocuments(ctx, filter)
		if err != nil {
			return err
		}
		if n == 0 {
			return model.ErrNotFound
		}
		return nil
	}
	res, err := coll.UpdateOne(ctx, filter, bson.M{"$set": set})
	if mongo.IsDuplicateKeyError(err) {
		return model.ErrDuplicate
	}
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return model.ErrNotFound
	}
	return nil
}
