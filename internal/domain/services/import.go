package services

import (
	"context"
	"errors"
	"fmt"

	"github.com/sirupsen/logrus"

	"github.com/ersonp/popolo-core/internal/domain/entities"
	"github.com/ersonp/popolo-core/internal/domain/ports"
	"github.com/ersonp/popolo-core/internal/domain/reconcile"
	"github.com/ersonp/popolo-core/internal/infrastructure/parsers"
)

// DefaultIDPrefix prefixes the identifier scheme that records source ids,
// e.g. "popit-person".
const DefaultIDPrefix = "popit-"

var errDryRun = errors.New("dry run")

// ImportOptions controls import behavior.
type ImportOptions struct {
	DryRun   bool             // Run every write, then roll back
	IDPrefix string           // Scheme prefix of source-id identifiers
	Policy   reconcile.Policy // Applied to nested identifiers, names and memberships
}

// DefaultImportOptions extends overlapping facts and uses DefaultIDPrefix.
func DefaultImportOptions() ImportOptions {
	return ImportOptions{IDPrefix: DefaultIDPrefix, Policy: reconcile.DefaultPolicy()}
}

// ImportError represents an error for a specific record during import.
type ImportError struct {
	Line       int    // Line number (1-indexed, 0 if unknown)
	Collection string // persons, organizations, ...
	ID         string // Source id of the record
	Message    string // Human-readable error message
}

func (e ImportError) Error() string {
	if e.Line > 0 {
		return fmt.Sprintf("line %d: %s", e.Line, e.Message)
	}
	return fmt.Sprintf("%s %s: %s", e.Collection, e.ID, e.Message)
}

// ImportResult contains the result of an import operation.
type ImportResult struct {
	Created int // Entities and memberships created
	Updated int // Entities and memberships found from an earlier import
	Facts   int // Nested identifiers and other names written
	Errors  []ImportError
}

// ImportService loads Popolo documents. Records keep their source id as an
// identifier with scheme <prefix><collection>, so importing the same data
// again updates the stored rows.
type ImportService struct {
	relationalDB ports.RelationalDB
	search       *SearchService
	logger       logrus.FieldLogger
}

// NewImportService creates a new import service. search may be nil.
func NewImportService(relationalDB ports.RelationalDB, search *SearchService, logger logrus.FieldLogger) *ImportService {
	return &ImportService{
		relationalDB: relationalDB,
		search:       search,
		logger:       orDiscard(logger),
	}
}

// Import writes doc in one transaction. A record that fails is rolled back on
// its own and reported in the result; the rest of the document still lands.
func (s *ImportService) Import(ctx context.Context, doc *parsers.Document, opts ImportOptions) (*ImportResult, error) {
	if opts.IDPrefix == "" {
		opts.IDPrefix = DefaultIDPrefix
	}
	result := &ImportResult{}
	if doc == nil || doc.IsEmpty() {
		return result, nil
	}

	var touched []entities.OwnerRef
	err := s.relationalDB.WithinTx(ctx, func(tx ports.RelationalDB) error {
		run := newImportRun(tx, opts, s.logger, result)
		run.importAll(ctx, doc)
		touched = run.touched

		if err := tx.LogAction(ctx, entities.ActionImport, "", map[string]any{
			"created": result.Created,
			"updated": result.Updated,
			"facts":   result.Facts,
			"errors":  len(result.Errors),
			"dry_run": opts.DryRun,
		}); err != nil {
			return err
		}

		if opts.DryRun {
			return errDryRun
		}
		return nil
	})
	if err != nil && !errors.Is(err, errDryRun) {
		return nil, fmt.Errorf("importing: %w", err)
	}

	s.logger.WithFields(logrus.Fields{
		"created": result.Created,
		"updated": result.Updated,
		"facts":   result.Facts,
		"errors":  len(result.Errors),
		"dry_run": opts.DryRun,
	}).Info("import finished")

	if !opts.DryRun && s.search != nil {
		if err := s.search.Index(ctx, touched...); err != nil {
			s.logger.WithError(err).Warn("indexing imported names")
		}
	}

	return result, nil
}

// importRun holds the state of one import: the services bound to its
// transaction and the source-id to stored-id maps.
type importRun struct {
	tx     ports.RelationalDB
	opts   ImportOptions
	logger logrus.FieldLogger
	result *ImportResult

	entities    *EntityService
	identifiers *IdentifierService
	otherNames  *OtherNameService
	memberships *MembershipService

	ids         map[entities.OwnerKind]map[string]string
	areaParents map[string]string
	touched     []entities.OwnerRef
}

func newImportRun(tx ports.RelationalDB, opts ImportOptions, logger logrus.FieldLogger, result *ImportResult) *importRun {
	return &importRun{
		tx:          tx,
		opts:        opts,
		logger:      logger,
		result:      result,
		entities:    NewEntityService(tx),
		identifiers: NewIdentifierService(tx, logger),
		otherNames:  NewOtherNameService(tx, logger),
		memberships: NewMembershipService(tx, logger),
		ids:         make(map[entities.OwnerKind]map[string]string),
		areaParents: make(map[string]string),
	}
}

// importAll follows the dependency order: areas, organizations and their
// parents, posts, persons, memberships, then area parents.
func (r *importRun) importAll(ctx context.Context, doc *parsers.Document) {
	for _, a := range doc.Areas {
		r.record(ctx, "areas", a.ID, 0, func(ctx context.Context) error {
			_, err := r.importArea(ctx, a)
			return err
		})
	}

	for _, o := range doc.Organizations {
		r.record(ctx, "organizations", o.ID, 0, func(ctx context.Context) error {
			return r.importOrganization(ctx, o)
		})
	}
	for _, o := range doc.Organizations {
		if o.ParentID == "" {
			continue
		}
		r.record(ctx, "organizations", o.ID, 0, func(ctx context.Context) error {
			return r.linkParentOrganization(ctx, o)
		})
	}

	for _, p := range doc.Posts {
		r.record(ctx, "posts", p.ID, 0, func(ctx context.Context) error {
			return r.importPost(ctx, p)
		})
	}

	for _, p := range doc.Persons {
		r.record(ctx, "persons", p.ID, 0, func(ctx context.Context) error {
			return r.importPerson(ctx, p)
		})
	}

	for _, m := range doc.Memberships {
		r.record(ctx, "memberships", m.Key(), 0, func(ctx context.Context) error {
			return r.importMembership(ctx, m)
		})
	}

	for areaID, parentSourceID := range r.areaParents {
		r.record(ctx, "areas", areaID, 0, func(ctx context.Context) error {
			return r.linkParentArea(ctx, areaID, parentSourceID)
		})
	}

	for _, row := range doc.Identifiers {
		r.record(ctx, "identifiers", row.OwnerID, row.LineNum, func(ctx context.Context) error {
			return r.importIdentifierRow(ctx, row)
		})
	}
}

// record runs fn in a nested transaction and turns its failure into an
// ImportError.
func (r *importRun) record(ctx context.Context, collection, id string, line int, fn func(ctx context.Context) error) {
	err := r.tx.WithinTx(ctx, func(ports.RelationalDB) error {
		return fn(ctx)
	})
	if err == nil {
		return
	}
	r.logger.WithFields(logrus.Fields{"collection": collection, "id": id}).WithError(err).Debug("record skipped")
	r.result.Errors = append(r.result.Errors, ImportError{
		Line:       line,
		Collection: collection,
		ID:         id,
		Message:    err.Error(),
	})
}

func (r *importRun) scheme(kind entities.OwnerKind) string {
	return r.opts.IDPrefix + string(kind)
}

// lookup maps a source id to a stored id, first from this run, then from the
// identifiers left by earlier imports.
func (r *importRun) lookup(ctx context.Context, kind entities.OwnerKind, sourceID string) (string, bool, error) {
	if id, ok := r.ids[kind][sourceID]; ok {
		return id, true, nil
	}
	owners, err := r.tx.FindOwnersByIdentifier(ctx, kind, r.scheme(kind), sourceID)
	if err != nil {
		return "", false, fmt.Errorf("looking up %s %s: %w", kind, sourceID, err)
	}
	if len(owners) == 0 {
		return "", false, nil
	}
	r.remember(kind, sourceID, owners[0].ID)
	return owners[0].ID, true, nil
}

// require is lookup for references that must resolve.
func (r *importRun) require(ctx context.Context, kind entities.OwnerKind, sourceID string) (string, error) {
	if sourceID == "" {
		return "", nil
	}
	id, ok, err := r.lookup(ctx, kind, sourceID)
	if err != nil {
		return "", err
	}
	if !ok {
		return "", fmt.Errorf("%s %s: %w", kind, sourceID, entities.ErrNotFound)
	}
	return id, nil
}

func (r *importRun) remember(kind entities.OwnerKind, sourceID, id string) {
	if r.ids[kind] == nil {
		r.ids[kind] = make(map[string]string)
	}
	r.ids[kind][sourceID] = id
}

// finish records the source id of a new row and counts it.
func (r *importRun) finish(ctx context.Context, kind entities.OwnerKind, sourceID, id string, existed bool) error {
	r.remember(kind, sourceID, id)
	if existed {
		r.result.Updated++
		return nil
	}
	_, err := r.identifiers.Add(ctx, entities.Identifier{
		Owner:      entities.OwnerRef{Kind: kind, ID: id},
		Scheme:     r.scheme(kind),
		Identifier: sourceID,
	}, reconcile.DefaultPolicy())
	if err != nil {
		return fmt.Errorf("recording source id: %w", err)
	}
	r.result.Created++
	return nil
}

// nested adds the identifiers and other names of a record. Each fact that
// fails is reported without undoing the record.
func (r *importRun) nested(ctx context.Context, owner entities.OwnerRef, sourceID string, ids []parsers.IdentifierRecord, names []parsers.OtherNameRecord) {
	if len(ids) > 0 {
		items := make([]entities.Identifier, len(ids))
		for i, rec := range ids {
			items[i] = entities.Identifier{
				Scheme:     rec.Scheme,
				Identifier: rec.Identifier,
				Source:     rec.Source,
				Dateframe:  entities.Dateframe{StartDate: rec.StartDate, EndDate: rec.EndDate},
			}
		}
		added, err := r.identifiers.AddMany(ctx, owner, items, r.opts.Policy)
		r.result.Facts += len(added)
		r.nestedErrors(string(owner.Kind), sourceID, err)
	}

	if len(names) > 0 {
		items := make([]entities.OtherName, len(names))
		for i, rec := range names {
			items[i] = entities.OtherName{
				Type:      rec.Type,
				Name:      rec.Name,
				Note:      rec.Note,
				Source:    rec.Source,
				Dateframe: entities.Dateframe{StartDate: rec.StartDate, EndDate: rec.EndDate},
			}
		}
		added, err := r.otherNames.AddMany(ctx, owner, items, r.opts.Policy)
		r.result.Facts += len(added)
		r.nestedErrors(string(owner.Kind), sourceID, err)
	}
}

func (r *importRun) nestedErrors(kind, sourceID string, err error) {
	for _, failure := range reconcile.Failures(err) {
		r.result.Errors = append(r.result.Errors, ImportError{
			Collection: kind,
			ID:         sourceID,
			Message:    failure.Error(),
		})
	}
}

// resolveArea returns the stored id of an inline area or an area reference.
func (r *importRun) resolveArea(ctx context.Context, inline *parsers.AreaRecord, areaID string) (string, error) {
	if inline != nil {
		return r.importArea(ctx, *inline)
	}
	return r.require(ctx, entities.OwnerArea, areaID)
}

func (r *importRun) importArea(ctx context.Context, rec parsers.AreaRecord) (string, error) {
	id, existed, err := r.lookup(ctx, entities.OwnerArea, rec.ID)
	if err != nil {
		return "", err
	}

	area := &entities.Area{
		ID:             id,
		Name:           rec.Name,
		Identifier:     rec.Identifier,
		Classification: rec.Classification,
	}
	if existed {
		old, err := r.entities.GetArea(ctx, id)
		if err != nil {
			return "", err
		}
		area.ParentID = old.ParentID
		area.Dateframe = old.Dateframe
		err = r.entities.UpdateArea(ctx, area)
	} else {
		err = r.entities.CreateArea(ctx, area)
	}
	if err != nil {
		return "", err
	}

	if err := r.finish(ctx, entities.OwnerArea, rec.ID, area.ID, existed); err != nil {
		return "", err
	}
	if rec.ParentID != "" {
		r.areaParents[area.ID] = rec.ParentID
	}
	r.nested(ctx, entities.OwnerRef{Kind: entities.OwnerArea, ID: area.ID}, rec.ID, rec.OtherIdentifiers, nil)
	return area.ID, nil
}

func (r *importRun) linkParentArea(ctx context.Context, areaID, parentSourceID string) error {
	parentID, err := r.require(ctx, entities.OwnerArea, parentSourceID)
	if err != nil {
		return fmt.Errorf("parent: %w", err)
	}
	area, err := r.entities.GetArea(ctx, areaID)
	if err != nil {
		return err
	}
	area.ParentID = parentID
	return r.entities.UpdateArea(ctx, area)
}

func (r *importRun) importOrganization(ctx context.Context, rec parsers.OrganizationRecord) error {
	id, existed, err := r.lookup(ctx, entities.OwnerOrganization, rec.ID)
	if err != nil {
		return err
	}
	areaID, err := r.resolveArea(ctx, rec.Area, rec.AreaID)
	if err != nil {
		return err
	}

	org := &entities.Organization{
		ID:              id,
		Name:            rec.Name,
		Classification:  rec.Classification,
		AreaID:          areaID,
		FoundingDate:    rec.FoundingDate,
		DissolutionDate: rec.DissolutionDate,
		Image:           rec.Image,
	}
	if existed {
		old, err := r.entities.GetOrganization(ctx, id)
		if err != nil {
			return err
		}
		// the parent is linked in a second pass
		org.ParentID = old.ParentID
		err = r.entities.UpdateOrganization(ctx, org)
	} else {
		err = r.entities.CreateOrganization(ctx, org)
	}
	if err != nil {
		return err
	}

	if err := r.finish(ctx, entities.OwnerOrganization, rec.ID, org.ID, existed); err != nil {
		return err
	}
	ref := entities.OwnerRef{Kind: entities.OwnerOrganization, ID: org.ID}
	r.touched = append(r.touched, ref)
	r.nested(ctx, ref, rec.ID, rec.Identifiers, rec.OtherNames)
	return nil
}

func (r *importRun) linkParentOrganization(ctx context.Context, rec parsers.OrganizationRecord) error {
	id, err := r.require(ctx, entities.OwnerOrganization, rec.ID)
	if err != nil {
		return err
	}
	parentID, err := r.require(ctx, entities.OwnerOrganization, rec.ParentID)
	if err != nil {
		return fmt.Errorf("parent: %w", err)
	}
	org, err := r.entities.GetOrganization(ctx, id)
	if err != nil {
		return err
	}
	org.ParentID = parentID
	return r.entities.UpdateOrganization(ctx, org)
}

func (r *importRun) importPost(ctx context.Context, rec parsers.PostRecord) error {
	id, existed, err := r.lookup(ctx, entities.OwnerPost, rec.ID)
	if err != nil {
		return err
	}
	orgID, err := r.require(ctx, entities.OwnerOrganization, rec.OrganizationID)
	if err != nil {
		return err
	}
	areaID, err := r.resolveArea(ctx, rec.Area, rec.AreaID)
	if err != nil {
		return err
	}

	post := &entities.Post{
		ID:             id,
		Label:          rec.Label,
		OtherLabel:     rec.OtherLabel,
		Role:           rec.Role,
		OrganizationID: orgID,
		AreaID:         areaID,
		Dateframe:      entities.Dateframe{StartDate: rec.StartDate, EndDate: rec.EndDate},
	}
	if existed {
		err = r.entities.UpdatePost(ctx, post)
	} else {
		err = r.entities.CreatePost(ctx, post)
	}
	if err != nil {
		return err
	}
	return r.finish(ctx, entities.OwnerPost, rec.ID, post.ID, existed)
}

func (r *importRun) importPerson(ctx context.Context, rec parsers.PersonRecord) error {
	id, existed, err := r.lookup(ctx, entities.OwnerPerson, rec.ID)
	if err != nil {
		return err
	}

	person := &entities.Person{
		ID:         id,
		Name:       rec.Name,
		FamilyName: rec.FamilyName,
		GivenName:  rec.GivenName,
		SortName:   rec.SortName,
		Email:      rec.Email,
		Gender:     rec.Gender,
		BirthDate:  rec.BirthDate,
		DeathDate:  rec.DeathDate,
		Image:      rec.Image,
		Summary:    rec.Summary,
		Biography:  rec.Biography,
	}
	if existed {
		err = r.entities.UpdatePerson(ctx, person)
	} else {
		err = r.entities.CreatePerson(ctx, person)
	}
	if err != nil {
		return err
	}

	if err := r.finish(ctx, entities.OwnerPerson, rec.ID, person.ID, existed); err != nil {
		return err
	}
	ref := entities.OwnerRef{Kind: entities.OwnerPerson, ID: person.ID}
	r.touched = append(r.touched, ref)
	r.nested(ctx, ref, rec.ID, rec.Identifiers, rec.OtherNames)
	return nil
}

func (r *importRun) importMembership(ctx context.Context, rec parsers.MembershipRecord) error {
	key := rec.Key()
	m := entities.Membership{
		Role:      rec.Role,
		Label:     rec.Label,
		Dateframe: entities.Dateframe{StartDate: rec.StartDate, EndDate: rec.EndDate},
	}

	var err error
	if m.PersonID, err = r.require(ctx, entities.OwnerPerson, rec.PersonID); err != nil {
		return err
	}
	if m.MemberOrganizationID, err = r.require(ctx, entities.OwnerOrganization, rec.MemberOrganizationID); err != nil {
		return err
	}
	if m.OrganizationID, err = r.require(ctx, entities.OwnerOrganization, rec.OrganizationID); err != nil {
		return err
	}
	if m.OnBehalfOfID, err = r.require(ctx, entities.OwnerOrganization, rec.OnBehalfOfID); err != nil {
		return err
	}
	if m.PostID, err = r.require(ctx, entities.OwnerPost, rec.PostID); err != nil {
		return err
	}
	if m.AreaID, err = r.resolveArea(ctx, rec.Area, rec.AreaID); err != nil {
		return err
	}

	id, existed, err := r.lookup(ctx, entities.OwnerMembership, key)
	if err != nil {
		return err
	}
	if existed {
		return r.updateMembership(ctx, id, m)
	}

	opts := MembershipOptions{Policy: r.opts.Policy}
	var res Result[entities.Membership]
	if m.PostID != "" && m.OrganizationID == "" {
		res, err = r.memberships.AddRole(ctx, m, opts)
	} else {
		res, err = r.memberships.Add(ctx, m, opts)
	}
	if err != nil {
		return err
	}
	return r.finish(ctx, entities.OwnerMembership, key, res.Item.ID, false)
}

// updateMembership rewrites a membership found from an earlier import in place.
func (r *importRun) updateMembership(ctx context.Context, id string, m entities.Membership) error {
	old, err := r.tx.FindMembershipByID(ctx, id)
	if err != nil {
		return fmt.Errorf("finding membership: %w", err)
	}
	if old == nil {
		return fmt.Errorf("membership %s: %w", id, entities.ErrNotFound)
	}

	m.ID = old.ID
	m.CreatedAt = old.CreatedAt
	if m.PostID != "" && m.OrganizationID == "" {
		post, err := r.entities.GetPost(ctx, m.PostID)
		if err != nil {
			return err
		}
		if m.OrganizationID, err = post.ResolveOrganization(""); err != nil {
			return err
		}
	}
	// a role taken from the post on creation is kept
	if m.Role == "" {
		m.Role = old.Role
	}
	if err := m.Validate(); err != nil {
		return err
	}
	if err := r.memberships.checkReferences(ctx, r.tx, m); err != nil {
		return err
	}
	//factwrite:ok the row is matched by its source id, not by period
	if err := r.tx.SaveMembership(ctx, &m); err != nil {
		return fmt.Errorf("saving membership: %w", err)
	}
	r.result.Updated++
	return nil
}

// importIdentifierRow attaches a CSV identifier to an existing entity, found
// by stored id or by the source id of an earlier import.
func (r *importRun) importIdentifierRow(ctx context.Context, row parsers.IdentifierRow) error {
	owner := entities.OwnerRef{Kind: entities.OwnerKind(row.OwnerKind), ID: row.OwnerID}
	if err := owner.Validate(); err != nil {
		return err
	}

	if err := ensureOwner(ctx, r.tx, owner); err != nil {
		if !errors.Is(err, entities.ErrNotFound) {
			return err
		}
		id, lookupErr := r.require(ctx, owner.Kind, row.OwnerID)
		if lookupErr != nil {
			return lookupErr
		}
		owner.ID = id
	}

	_, err := r.identifiers.Add(ctx, entities.Identifier{
		Owner:      owner,
		Scheme:     row.Scheme,
		Identifier: row.Identifier,
		Source:     row.Source,
		Dateframe:  entities.Dateframe{StartDate: row.StartDate, EndDate: row.EndDate},
	}, r.opts.Policy)
	if err != nil {
		return err
	}
	r.result.Facts++
	return nil
}
